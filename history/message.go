package history

import (
	"time"

	"github.com/gotd/td/tg"
)

// Message 历史消息的只读快照，核心过滤与分类只依赖这些字段
type Message struct {
	ID    int
	Date  time.Time
	Text  string
	Media tg.MessageMediaClass // 可能为nil
	From  tg.PeerClass         // 仅用于展示，可能为nil
}

// GroupInfo 群频基础信息
type GroupInfo struct {
	ID        int64
	Name      string
	Title     string
	Count     int
	Hash      int64
	Broadcast bool
}

func fromTG(m *tg.Message) Message {
	return Message{
		ID:    m.ID,
		Date:  time.Unix(int64(m.Date), 0),
		Text:  m.Message,
		Media: m.Media,
		From:  m.FromID,
	}
}
