package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tgbulk/history"
	"tgbulk/media"
)

// MediaType 下载目标类型
type MediaType string

const (
	TypeAll       MediaType = "all"
	TypePhotos    MediaType = "photos"
	TypeDocuments MediaType = "documents"
	TypeLinks     MediaType = "links"
	TypeGifs      MediaType = "gifs"
)

func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(s) {
	case TypeAll, TypePhotos, TypeDocuments, TypeLinks, TypeGifs:
		return MediaType(s), nil
	}
	return "", fmt.Errorf("不支持的媒体类型：%s，可选all/photos/documents/links/gifs", s)
}

// Config 本次运行的过滤条件，构造后只读
type Config struct {
	MediaType   MediaType
	MaxMessages int       // 通过过滤的消息条数上限，0不限制
	MinDate     time.Time // 零值不限制
	Contains    string    // 正文包含子串（忽略大小写），空串不限制
}

// Filter 包装上游迭代器，只产出通过过滤的消息。
// 产出条数达到MaxMessages后不再从上游拉取，翻页随之停止。
type Filter struct {
	src history.Iter
	cfg Config
	n   int
	cur history.Message
}

func New(src history.Iter, cfg Config) *Filter {
	return &Filter{src: src, cfg: cfg}
}

func (f *Filter) Next(ctx context.Context) bool {
	if f.cfg.MaxMessages > 0 && f.n >= f.cfg.MaxMessages {
		return false
	}
	for f.src.Next(ctx) {
		m := f.src.Value()
		if !Qualify(m, f.cfg) {
			continue
		}
		f.cur = m
		f.n++
		return true
	}
	return false
}

func (f *Filter) Value() history.Message { return f.cur }

// Err 透传上游翻页错误，被过滤掉的消息不产生错误
func (f *Filter) Err() error { return f.src.Err() }

// Qualify 纯谓词：判断一条消息是否满足过滤条件，不修改消息
func Qualify(m history.Message, cfg Config) bool {
	if !cfg.MinDate.IsZero() && m.Date.Before(cfg.MinDate) {
		return false
	}
	if cfg.Contains != "" &&
		!strings.Contains(strings.ToLower(m.Text), strings.ToLower(cfg.Contains)) {
		return false
	}

	kind := media.KindOf(m.Media)
	switch cfg.MediaType {
	case TypePhotos:
		return kind == media.KindPhoto
	case TypeDocuments:
		return kind == media.KindDocument
	case TypeGifs:
		return kind == media.KindGif
	case TypeLinks:
		// links模式允许没有附件，正文有链接或带网页预览即可
		return kind == media.KindWebPage || media.HasLink(m.Text)
	default: // all
		switch kind {
		case media.KindPhoto, media.KindDocument, media.KindGif, media.KindWebPage:
			return true
		}
		return media.HasLink(m.Text)
	}
}
