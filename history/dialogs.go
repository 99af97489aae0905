package history

import (
	"context"
	"errors"
	"time"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/sirupsen/logrus"
)

// Dialogs 遍历当前账号的会话列表，收集全部群频信息
func Dialogs(ctx context.Context, api *tg.Client, log *logrus.Logger, maxRetry int) map[int64]*GroupInfo {
	offset := 0
	limit := 100
	var mtries int
	mp := make(map[int64]*GroupInfo)
	for {
		resp, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
			OffsetID:   offset,
			Limit:      limit,
			OffsetPeer: &tg.InputPeerEmpty{},
		})
		if err != nil {
			if mtries >= maxRetry {
				log.Errorf("遍历对话框【%d】多次失败，结束", offset)
				break
			}
			var rpcErr *tgerr.Error
			if errors.As(err, &rpcErr) && rpcErr.Code == 420 {
				log.Warningf("遍历对话框需要等待|%d|waitting...", rpcErr.Argument)
				time.Sleep(time.Second * time.Duration(rpcErr.Argument+2))
			} else {
				time.Sleep(time.Second * 1)
				log.Warningf("遍历对话框失败：%s，重试中... (%d/%d)", err.Error(), mtries+1, maxRetry)
			}
			mtries++
			continue
		}
		mtries = 0

		if resp == nil {
			break
		}
		if rsp, ok := resp.(*tg.MessagesDialogs); ok {
			for _, c := range rsp.Chats {
				if chat, ok := c.(*tg.Channel); ok {
					mp[chat.ID] = &GroupInfo{
						ID:        chat.ID,
						Name:      chat.Username,
						Title:     chat.Title,
						Count:     chat.ParticipantsCount,
						Hash:      chat.AccessHash,
						Broadcast: chat.Broadcast,
					}
				}
			}
			if len(rsp.Chats) < limit {
				break
			}
		}
		offset = offset + limit
		time.Sleep(time.Millisecond * 800)
	}
	return mp
}

// ResolveUsername 把群频名解析为InputChannel，非群频返回nil
func ResolveUsername(ctx context.Context, api *tg.Client, log *logrus.Logger, username string) *tg.InputChannel {
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		log.Errorf("failed to resolve username: %s|%s", username, err.Error())
		var rpcErr *tgerr.Error
		if errors.As(err, &rpcErr) && rpcErr.Code == 400 {
			log.Errorf("无效名：%s", username)
		}
		return nil
	}

	switch peer := resolved.GetPeer().(type) {
	case *tg.PeerChannel:
		for _, c := range resolved.GetChats() {
			if chat, ok := c.(*tg.Channel); ok && chat.ID == peer.ChannelID {
				return &tg.InputChannel{
					ChannelID:  peer.ChannelID,
					AccessHash: chat.AccessHash,
				}
			}
		}
		log.Errorf("解析结果缺少群频信息：%s", username)
	default:
		log.Errorf("%s非群频: %T", username, peer)
	}
	return nil
}
