package events

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/IBM/sarama"
)

// Dispatcher：本地有界队列 + worker 异步发送 + 有限重试。
// 目标：
// - 不阻塞保存主流程（调用方只负责入队）
// - Kafka 短暂阻塞时靠队列吸收，后台慢慢补发
// - 队列满时允许降级（丢弃），避免内存无限增长
type Dispatcher struct {
	producer sarama.SyncProducer
	topic    string

	queue chan DocConvertedEvent

	// sem 限制并发的 SendMessage 数量
	sem *SemaphoreControl

	workers     int
	maxRetry    int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

type DispatcherOptions struct {
	QueueSize   int
	Workers     int
	MaxRetry    int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func NewDispatcher(producer sarama.SyncProducer, topic string, sem *SemaphoreControl, opt DispatcherOptions) *Dispatcher {
	d := &Dispatcher{
		producer:    producer,
		topic:       topic,
		queue:       make(chan DocConvertedEvent, opt.QueueSize),
		sem:         sem,
		workers:     opt.Workers,
		maxRetry:    opt.MaxRetry,
		baseBackoff: opt.BaseBackoff,
		maxBackoff:  opt.MaxBackoff,
	}

	d.Start()
	return d
}

// Enqueue：把事件放入本地队列。
// - 队列满时等待直到 ctx 超时
// - 事件属于尽力送达，超时丢弃由调用方决定是否记日志
func (d *Dispatcher) Enqueue(ctx context.Context, evt DocConvertedEvent) error {
	select {
	case d.queue <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		go d.workerLoop(i)
	}
}

func (d *Dispatcher) workerLoop(workerID int) {
	for evt := range d.queue {
		d.sendWithRetry(workerID, evt)
	}
}

func (d *Dispatcher) sendWithRetry(workerID int, evt DocConvertedEvent) {
	for attempt := 0; attempt <= d.maxRetry; attempt++ {
		if d.sem != nil {
			// worker 允许一直等待（不会影响主链路）
			_ = d.sem.Acquire(context.Background())
		}

		err := d.sendOnce(evt)

		if d.sem != nil {
			_ = d.sem.Release()
		}

		if err == nil {
			return
		}

		if attempt == d.maxRetry {
			log.Printf("kafka send failed, drop event doc=%d rev=%d worker=%d err=%v",
				evt.DocID, evt.Revision, workerID, err)
			return
		}

		// 退避，每次退避时间X2
		backoff := d.baseBackoff * time.Duration(1<<attempt)
		if backoff > d.maxBackoff {
			backoff = d.maxBackoff
		}
		time.Sleep(backoff)
	}
}

func (d *Dispatcher) sendOnce(evt DocConvertedEvent) error {
	if d.producer == nil || d.topic == "" {
		return nil
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		// 以 docId 做 key，便于按文档分区
		Key:   sarama.StringEncoder(strconv.FormatUint(evt.DocID, 10)),
		Value: sarama.ByteEncoder(b),
	}
	_, _, err = d.producer.SendMessage(msg)
	return err
}
