package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/sirupsen/logrus"

	cm "tgbulk/common"
	dm "tgbulk/db"
	"tgbulk/filter"
	"tgbulk/history"
	"tgbulk/media"
	"tgbulk/sink"
)

var (
	logger               *logrus.Logger
	config               *cm.Config
	resolver             dcs.Resolver
	session, sessionPath string
	client               *telegram.Client

	list        bool
	export      bool
	username    string
	gid         int64
	mediaTypeS  string
	limit       int
	days        int
	contains    string
	downloadDir string
	startMsgID  int
	maxRetry    int
	perSize     int

	mediaType filter.MediaType
)

func init() {
	flag.BoolVar(&list, "list", false, "列出当前账号的群频")
	flag.BoolVar(&export, "export", false, "导出该会话的群频信息到csv")
	flag.StringVar(&username, "name", "", "目标群频名")
	flag.Int64Var(&gid, "id", 0, "群ID，常用于私密群")
	flag.StringVar(&mediaTypeS, "type", "all", "下载类型all/photos/documents/links/gifs")
	flag.IntVar(&limit, "limit", 100, "最多处理多少条符合条件的消息，0不限制")
	flag.IntVar(&days, "days", 0, "只处理最近N天的消息，0不限制")
	flag.StringVar(&contains, "contains", "", "只处理正文包含该文本的消息，忽略大小写")
	flag.StringVar(&downloadDir, "dir", "", "下载目录，默认取配置文件downloadDir")
	flag.IntVar(&startMsgID, "s", 1, "从哪条消息ID开始处理，需>=1")
	flag.IntVar(&maxRetry, "t", 0, "遍历聊天和下载文件出现异常的重试次数，默认取配置文件maxRetry")
	flag.IntVar(&perSize, "p", 0, "每次请求多少条聊天1-100，默认取配置文件perSize")
	flag.Parse()

	if !list && !export && gid == 0 && username == "" {
		panic(fmt.Errorf("运行download --help查看使用方法，需指定-list/-export或-name/-id之一"))
	}

	var err error
	mediaType, err = filter.ParseMediaType(mediaTypeS)
	if err != nil {
		panic(err)
	}
	if limit < 0 {
		panic(fmt.Errorf("-limit需>=0，0表示不限制"))
	}
	if days < 0 {
		panic(fmt.Errorf("-days需>=0，0表示不限制"))
	}

	// 加载配置
	config = new(cm.Config)
	if err := cm.LoadConfig(config, "./conf.ini"); err != nil {
		panic(err)
	}
	if downloadDir == "" {
		downloadDir = config.Download.DownloadDir
	}
	if maxRetry <= 0 {
		maxRetry = config.Download.MaxRetry
	}
	if perSize <= 0 || perSize > 100 {
		perSize = config.Download.PerSize
	}

	// 创建目录（包括所有必要的父目录）
	if err := os.MkdirAll(config.Download.SessionDir, 0755); err != nil {
		panic(fmt.Sprintf("创建session目录失败|%s|%v", config.Download.SessionDir, err))
	}
	if err := os.MkdirAll(downloadDir, 0755); err != nil {
		panic(fmt.Sprintf("创建下载目录失败|%s|%v", downloadDir, err))
	}

	// 初始化日志
	logger = cm.NewLogger("./log/download.log", config.Common.LogSplitSize, true)

	// 初始化网络
	if config.NET.UseProxy {
		resolver, err = history.NewResolver(config.NET.ProxyHost, config.NET.ProxyPort)
		if err != nil {
			logger.Errorf("初始化网络失败：%s", err.Error())
		}
	}

	if err := dm.DbInit(config.DB.DBPath); err != nil {
		panic(fmt.Sprintf("初始化数据库失败|%s|%v", config.DB.DBPath, err))
	}
}

// getSession 找到现有会话文件，没有则用默认路径等待首次登录写入
func getSession() {
	name, path, err := history.FindSession(config.Download.SessionDir)
	if err != nil {
		logger.Warningf("遍历session目录|%s出错: %v", config.Download.SessionDir, err)
	}
	if path != "" {
		session, sessionPath = name, path
		return
	}
	session = "default"
	sessionPath = filepath.Join(config.Download.SessionDir, "default.json")
	logger.Infof("未找到session文件，首次登录后写入：%s", sessionPath)
}

func listDialogs(ctx context.Context) {
	groupData := history.Dialogs(ctx, client.API(), logger, maxRetry)
	if len(groupData) == 0 {
		logger.Infof("会话%s没有群频信息", session)
		return
	}
	fmt.Printf("%-14s %-6s %-8s %s\n", "ID", "类型", "人数", "标题")
	for _, group := range groupData {
		kind := "群组"
		if group.Broadcast {
			kind = "频道"
		}
		fmt.Printf("%-14d %-6s %-8d %s\n", group.ID, kind, group.Count, group.Title)
	}
}

func exportData(ctx context.Context) {
	groupData := history.Dialogs(ctx, client.API(), logger, maxRetry)
	if len(groupData) == 0 {
		logger.Infof("会话%s没有群频信息", session)
		return
	}

	fpath := fmt.Sprintf("./%s_groups.csv", session)
	ff, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		logger.Errorf("导出群频信息时，创建csv文件失败：%s：%s", fpath, err.Error())
		return
	}
	defer ff.Close()
	cv := csv.NewWriter(ff)
	cv.UseCRLF = true
	cv.Write([]string{"ID", "Name", "Title", "Count"})
	for _, group := range groupData {
		cv.Write([]string{strconv.Itoa(int(group.ID)), group.Name, group.Title, strconv.Itoa(group.Count)})
	}
	cv.Flush()
	logger.Infof("会话%s已导出%d个群频信息>>>%s", session, len(groupData), fpath)
}

// resolvePeer 按-name或-id定位目标群频
func resolvePeer(ctx context.Context) *tg.InputPeerChannel {
	if username != "" {
		group := history.ResolveUsername(ctx, client.API(), logger, username)
		if group == nil {
			return nil
		}
		gid = group.ChannelID
		logger.Infof("%s解析得群ID：%d", username, gid)
		return &tg.InputPeerChannel{
			ChannelID:  group.ChannelID,
			AccessHash: group.AccessHash,
		}
	}

	groupData := history.Dialogs(ctx, client.API(), logger, maxRetry)
	info, ok := groupData[gid]
	if !ok {
		logger.Errorf("会话%s找不到群频：%d", session, gid)
		return nil
	}
	return &tg.InputPeerChannel{
		ChannelID:  gid,
		AccessHash: info.Hash,
	}
}

// downloadMedia 顺序处理过滤后的消息：分类、查重、落盘、入库
func downloadMedia(ctx context.Context) error {
	peer := resolvePeer(ctx)
	if peer == nil {
		return fmt.Errorf("无法定位目标群频")
	}
	logger.Infof("正在处理群频：%d", gid)

	groupDir := filepath.Join(downloadDir, strconv.FormatInt(gid, 10))
	if err := os.MkdirAll(groupDir, 0755); err != nil {
		return fmt.Errorf("创建群频资源存储目录%s失败: %w", groupDir, err)
	}
	linksPath := filepath.Join(groupDir, "extracted_links.txt")

	fcfg := filter.Config{
		MediaType:   mediaType,
		MaxMessages: limit,
		Contains:    contains,
	}
	if days > 0 {
		fcfg.MinDate = time.Now().AddDate(0, 0, -days)
	}

	it := history.NewIter(client.API(), logger, peer, startMsgID, perSize, maxRetry)
	fl := filter.New(it, fcfg)
	snk := sink.New(client.API(), logger, maxRetry)

	var downloaded, skipped, extracted int
	for fl.Next(ctx) {
		msg := fl.Value()
		tm := msg.Date.Format(time.DateTime)

		// links与all模式下附带提取正文链接与网页预览
		if mediaType == filter.TypeLinks || mediaType == filter.TypeAll {
			links := media.AllLinks(msg)
			if len(links) > 0 {
				if err := sink.AppendLinks(linksPath, links); err != nil {
					logger.Errorf("写入链接文件%s失败：%s", linksPath, err.Error())
				} else {
					extracted += len(links)
				}
			}
		}
		if mediaType == filter.TypeLinks {
			continue
		}

		r := media.Classify(gid, msg)
		switch r.Class {
		case media.ClassPhoto, media.ClassDocument, media.ClassGif:
		default:
			// 无法识别或仅含链接的消息不产生文件，继续处理后续消息
			continue
		}

		filePath := filepath.Join(groupDir, r.FileName)
		if sink.Exists(filePath) {
			logger.Infof("文件已存在，跳过：【%s】", filePath)
			skipped++
			continue
		}

		var err error
		var kind string
		var fsize int64
		switch r.Class {
		case media.ClassPhoto:
			kind = "photo"
			logger.Infof("正在下载群频%d第%d消息图片：【%s】", gid, msg.ID, r.FileName)
			err = snk.SavePhoto(ctx, r.Photo, filePath)
		case media.ClassDocument:
			kind = "document"
			fsize = r.Document.Size
			logger.Infof("正在下载群频%d第%d消息文件：【%s】 大小：【%.2fMB】", gid, msg.ID, r.FileName, float64(fsize)/1024/1024)
			err = snk.SaveDocument(ctx, r.Document, filePath)
		case media.ClassGif:
			kind = "gif"
			fsize = r.Document.Size
			logger.Infof("正在下载群频%d第%d消息动图：【%s】", gid, msg.ID, r.FileName)
			err = snk.SaveDocument(ctx, r.Document, filePath)
		}
		if err != nil {
			// 单条消息失败只记录，不中断整个批次
			logger.Errorf("群频%d第%d消息下载失败：%s", gid, msg.ID, err.Error())
			continue
		}
		downloaded++

		dm.DbNewFile(logger, &dm.FileRecord{
			Gid:   gid,
			Mid:   msg.ID,
			Kind:  kind,
			Fname: r.OrigName,
			Dname: r.FileName,
			Fpath: filePath,
			Fsize: fsize,
			Ftime: tm,
			Msg:   msg.Text,
		})
	}
	if err := fl.Err(); err != nil {
		return err
	}

	logger.Infof("群频：%d已处理完成，下载%d个文件，提取%d条链接，跳过%d个已存在文件", gid, downloaded, extracted, skipped)
	return nil
}

func main() {
	getSession()

	ctx := context.Background()
	storage := history.FileSessionStorage{FilePath: sessionPath}

	opts := telegram.Options{SessionStorage: storage}
	if config.NET.UseProxy {
		opts.Resolver = resolver
	}
	client = telegram.NewClient(config.Download.APIID, config.Download.APIHash, opts)

	if err := client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, history.NewAuthFlow(config.Download.Phone)); err != nil {
			return fmt.Errorf("登录失败: %w", err)
		}
		self, err := client.Self(ctx)
		if err != nil {
			return err
		}
		logger.Infof("Logged in as: %s (%d)", self.Username, self.ID)

		switch {
		case list:
			listDialogs(ctx)
			return nil
		case export:
			exportData(ctx)
			return nil
		default:
			return downloadMedia(ctx)
		}
	}); err != nil {
		logger.Errorf("运行异常：%v", err)
		var rpcErr *tgerr.Error
		if errors.As(err, &rpcErr) && rpcErr.Code == 401 {
			if cerr := history.CleanSession(sessionPath); cerr != nil {
				logger.Errorf("账号失效，移除会话失败：%s|%s", sessionPath, cerr.Error())
			} else {
				logger.Errorf("账号失效，已移除会话：%s", sessionPath)
			}
		}
		os.Exit(1)
	}
}
