package cache

import "fmt"

// 键语义：
// - markdownKey(docID,rev): 某版本的 markdown 投影（String，带抖动 TTL）
//
// {} 包住 docID：Redis Cluster 只对 {} 内的部分做 CRC16，
// 同一文档的所有版本落在同一个槽位上，方便整体失效。

const keyMarkdownFmt = "projection:markdown:{doc:%d}:rev:%d"

func markdownKey(docID, rev uint64) string {
	return fmt.Sprintf(keyMarkdownFmt, docID, rev)
}
