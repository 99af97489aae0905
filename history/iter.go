package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/sirupsen/logrus"
)

// Iter 拉取式消息迭代器。Next在缓冲耗尽时请求下一页消息，
// 调用方停止调用Next即停止翻页，不会继续发请求。
type Iter interface {
	Next(ctx context.Context) bool
	Value() Message
	Err() error
}

type pageIter struct {
	api      *tg.Client
	log      *logrus.Logger
	peer     tg.InputPeerClass
	perSize  int
	maxRetry int

	offset int // 下一页起始消息ID
	buf    []Message
	i      int
	cur    Message
	done   bool
	err    error
}

// NewIter 从startMsgID开始按消息ID升序遍历peer的历史消息
func NewIter(api *tg.Client, log *logrus.Logger, peer tg.InputPeerClass, startMsgID, perSize, maxRetry int) Iter {
	if startMsgID < 1 {
		startMsgID = 1
	}
	return &pageIter{
		api:      api,
		log:      log,
		peer:     peer,
		perSize:  perSize,
		maxRetry: maxRetry,
		offset:   startMsgID,
	}
}

func (it *pageIter) Next(ctx context.Context) bool {
	for {
		if it.done || it.err != nil {
			return false
		}
		if it.i < len(it.buf) {
			it.cur = it.buf[it.i]
			it.i++
			return true
		}
		it.fetch(ctx)
	}
}

func (it *pageIter) Value() Message { return it.cur }

func (it *pageIter) Err() error { return it.err }

// fetch 请求下一页并填充缓冲，空页即历史耗尽
func (it *pageIter) fetch(ctx context.Context) {
	var mtries int
	for {
		hist, err := it.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:      it.peer,
			OffsetID:  it.offset,
			AddOffset: -it.perSize,
			Limit:     it.perSize,
		})
		if err != nil {
			if mtries >= it.maxRetry {
				it.err = fmt.Errorf("遍历消息【%d】多次失败: %w", it.offset, err)
				return
			}
			var rpcErr *tgerr.Error
			if errors.As(err, &rpcErr) && rpcErr.Code == 420 {
				it.log.Warningf("遍历消息需要等待|%d|waitting...", rpcErr.Argument)
				time.Sleep(time.Second * time.Duration(rpcErr.Argument+2))
			} else {
				time.Sleep(time.Second * 1)
				it.log.Warningf("遍历消息失败：%s，重试中... (%d/%d)", err.Error(), mtries+1, it.maxRetry)
			}
			mtries++
			continue
		}

		resp, ok := hist.(*tg.MessagesChannelMessages)
		if !ok {
			it.err = fmt.Errorf("非预期的历史消息响应类型: %T", hist)
			return
		}
		if len(resp.Messages) == 0 {
			it.done = true
			return
		}

		msgs, maxID := toMessages(resp.Messages)
		it.buf = msgs
		it.i = 0
		it.offset = maxID + 1
		time.Sleep(time.Millisecond * 800)
		return
	}
}

// toMessages 把一页消息转为升序的Message切片。服务消息与空消息
// 不产出，但参与maxID计算以推进翻页偏移。
func toMessages(page []tg.MessageClass) ([]Message, int) {
	reverse(page)
	msgs := make([]Message, 0, len(page))
	var maxID int
	for _, msg := range page {
		switch tgMsg := msg.(type) {
		case *tg.Message:
			if tgMsg.ID > maxID {
				maxID = tgMsg.ID
			}
			msgs = append(msgs, fromTG(tgMsg))
		case *tg.MessageService:
			if tgMsg.ID > maxID {
				maxID = tgMsg.ID
			}
		case *tg.MessageEmpty:
			if tgMsg.ID > maxID {
				maxID = tgMsg.ID
			}
		}
	}
	return msgs, maxID
}

func reverse(s []tg.MessageClass) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
