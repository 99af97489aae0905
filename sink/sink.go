package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/sirupsen/logrus"

	"tgbulk/common"
)

// Sink 执行实际的字节传输与落盘。是否需要下载由调用方先检查
// 目标文件是否存在来决定。
type Sink struct {
	api      *tg.Client
	log      *logrus.Logger
	maxRetry int
}

func New(api *tg.Client, log *logrus.Logger, maxRetry int) *Sink {
	return &Sink{api: api, log: log, maxRetry: maxRetry}
}

// Exists 目标文件是否已落盘，存在即跳过下载
func Exists(path string) bool {
	ff, err := os.Stat(path)
	return err == nil && ff.Mode().IsRegular()
}

// SavePhoto 下载图片最大尺寸到photoPath
func (s *Sink) SavePhoto(ctx context.Context, photo *tg.Photo, photoPath string) error {
	// 获取最大的图片尺寸
	var maxSize *tg.PhotoSize
	var maxArea int
	for _, size := range photo.Sizes {
		if ps, ok := size.(*tg.PhotoSize); ok {
			area := ps.W * ps.H
			if area > maxArea {
				maxArea = area
				maxSize = ps
			}
		}
	}
	if maxSize == nil {
		return fmt.Errorf("未找到合适的图片尺寸：%s", photoPath)
	}

	dl := downloader.NewDownloader().WithPartSize(1024 * 1024)
	location := &tg.InputPhotoFileLocation{
		ID:            photo.ID,
		AccessHash:    photo.AccessHash,
		FileReference: photo.FileReference,
		ThumbSize:     maxSize.Type,
	}

	var lastErr error
	for retries := 0; retries < s.maxRetry; retries++ {
		_, err := dl.Download(s.api, location).ToPath(ctx, photoPath)
		if err == nil {
			return nil
		}
		lastErr = err

		var rpcErr *tgerr.Error
		if errors.As(err, &rpcErr) && rpcErr.Code == 420 {
			waitTime := time.Second * time.Duration(rpcErr.Argument+2)
			s.log.Warningf("下载图片%s限流，等待 %v...", photoPath, waitTime)
			time.Sleep(waitTime)
			continue
		}

		s.log.Warningf("下载图片%s失败，重试中... (%d/%d): %v", photoPath, retries+1, s.maxRetry, err)
		time.Sleep(time.Second * 1)
	}
	return fmt.Errorf("下载图片%s多次失败: %w", photoPath, lastErr)
}

// SaveDocument 分块下载文档到filePath，存在不完整文件时断点续传
func (s *Sink) SaveDocument(ctx context.Context, docu *tg.Document, filePath string) error {
	var lastSize int64
	var isBlank bool
	if ff, err := os.Stat(filePath); err == nil {
		lastSize = ff.Size()
		if lastSize >= docu.Size {
			return nil
		}
		if lastSize%4096 != 0 {
			// 分块边界不齐说明上次写坏了，删掉重下
			s.log.Infof("原文件已损坏，重新下载：【%s】", filePath)
			if err := os.Remove(filePath); err != nil {
				return fmt.Errorf("删除旧文件【%s】失败: %w", filePath, err)
			}
			lastSize = 0
			isBlank = true
		} else {
			rate := float64(lastSize) / float64(docu.Size) * 100
			s.log.Infof("原文件进度%.2f%%，正在继续下载：【%s】", rate, filePath)
		}
	} else {
		isBlank = true
	}

	of, err := os.OpenFile(filePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("创建文件失败：【%s】: %w", filePath, err)
	}

	var c, retries int
	var isOK bool
	var lastErr error
	for {
		a, err := s.api.UploadGetFile(ctx, &tg.UploadGetFileRequest{
			Location: docu.AsInputDocumentFileLocation(),
			Offset:   lastSize,
			Limit:    1024 * 1024, // 每次处理1MB
		})
		if err != nil {
			if retries >= s.maxRetry {
				lastErr = err
				break
			}
			var rpcErr *tgerr.Error
			if errors.As(err, &rpcErr) && rpcErr.Code == 420 {
				s.log.Warningf("下载资源需要等待|%d|waitting...", rpcErr.Argument)
				time.Sleep(time.Second * time.Duration(rpcErr.Argument+2))
			} else {
				time.Sleep(time.Second * 1)
				s.log.Warningf("下载失败：%s，重试中... (%d/%d)", err.Error(), retries+1, s.maxRetry)
			}
			retries++
			continue
		}
		retries = 0

		b, ok := a.(*tg.UploadFile)
		if !ok {
			lastErr = fmt.Errorf("下载过程中类型异常：%T", a)
			break
		}
		lastSize += int64(len(b.Bytes))
		if _, err = of.Write(b.Bytes); err != nil {
			lastErr = fmt.Errorf("下载过程中写入文件失败: %w", err)
			break
		}
		c++
		if c%100 == 0 {
			if err = of.Sync(); err != nil {
				lastErr = fmt.Errorf("文件写入同步失败: %w", err)
				break
			}
		}
		common.ProgressBar(lastSize, docu.Size)
		if lastSize >= docu.Size {
			isOK = true
			break
		}
	}

	if err = of.Sync(); err != nil && lastErr == nil {
		lastErr = fmt.Errorf("文件最终写入同步失败: %w", err)
	}
	of.Close()

	if isBlank && c == 0 {
		// 新建的文件没有任何写入，删除临时生成的空文件
		if err := os.Remove(filePath); err != nil {
			s.log.Warningf("删除临时文件【%s】失败：%s", filePath, err.Error())
		}
	}
	if isOK {
		return nil
	}
	return fmt.Errorf("下载文件【%s】失败: %w", filePath, lastErr)
}

// AppendLinks 把链接按行追加到汇总文件
func AppendLinks(path string, links []string) error {
	if len(links) == 0 {
		return nil
	}
	ff, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer ff.Close()
	for _, link := range links {
		if _, err := ff.WriteString(link + "\n"); err != nil {
			return err
		}
	}
	return nil
}
