package media

import (
	"fmt"
	"path"
	"strings"

	"github.com/gotd/td/tg"

	"tgbulk/history"
)

// Kind 附件种类，由原始media对象判定
type Kind int

const (
	KindNone Kind = iota
	KindPhoto
	KindDocument // 不含动图
	KindGif
	KindWebPage
)

// Class 分类结果的种类标签
type Class int

const (
	ClassNone Class = iota
	ClassPhoto
	ClassDocument
	ClassGif
	ClassLinks
)

// Result 单条消息的分类结果。FileName由群ID和消息ID确定性生成，
// 重复下载靠落盘前检查该文件是否已存在来避免。
type Result struct {
	Class    Class
	Photo    *tg.Photo
	Document *tg.Document
	OrigName string // 文档原始文件名，可能为空
	FileName string // 目标文件名
	Links    []string
}

// KindOf 判定附件种类。格式不完整（如PhotoEmpty/DocumentEmpty）按无附件处理。
func KindOf(media tg.MessageMediaClass) Kind {
	switch md := media.(type) {
	case *tg.MessageMediaPhoto:
		if _, ok := md.Photo.(*tg.Photo); ok {
			return KindPhoto
		}
	case *tg.MessageMediaDocument:
		if docu, ok := md.Document.(*tg.Document); ok {
			if isAnimated(docu) {
				return KindGif
			}
			return KindDocument
		}
	case *tg.MessageMediaWebPage:
		if _, ok := md.Webpage.(*tg.WebPage); ok {
			return KindWebPage
		}
	}
	return KindNone
}

// Classify 计算一条消息应该下载什么、存成什么名字，不做任何IO。
// 附件格式无法识别时返回ClassNone，调用方跳过该消息继续处理。
func Classify(gid int64, m history.Message) Result {
	switch KindOf(m.Media) {
	case KindPhoto:
		photo := m.Media.(*tg.MessageMediaPhoto).Photo.(*tg.Photo)
		return Result{
			Class:    ClassPhoto,
			Photo:    photo,
			FileName: fmt.Sprintf("%d_%d.jpg", gid, m.ID),
		}
	case KindDocument:
		docu := m.Media.(*tg.MessageMediaDocument).Document.(*tg.Document)
		orig := origFileName(docu)
		return Result{
			Class:    ClassDocument,
			Document: docu,
			OrigName: orig,
			FileName: docFileName(gid, m.ID, orig, docu.MimeType),
		}
	case KindGif:
		docu := m.Media.(*tg.MessageMediaDocument).Document.(*tg.Document)
		return Result{
			Class:    ClassGif,
			Document: docu,
			FileName: fmt.Sprintf("%d_%d%s", gid, m.ID, gifExt(docu.MimeType)),
		}
	case KindWebPage:
		page := m.Media.(*tg.MessageMediaWebPage).Webpage.(*tg.WebPage)
		links := make([]string, 0, 4)
		if page.URL != "" {
			links = append(links, page.URL)
		}
		links = append(links, ExtractLinks(m.Text)...)
		if len(links) == 0 {
			return Result{Class: ClassNone}
		}
		return Result{Class: ClassLinks, Links: links}
	}

	// 无附件的纯文本消息只剩链接可提取
	if links := ExtractLinks(m.Text); len(links) > 0 {
		return Result{Class: ClassLinks, Links: links}
	}
	return Result{Class: ClassNone}
}

// AllLinks 提取消息携带的全部链接：网页预览优先，其后是正文链接按出现顺序
func AllLinks(m history.Message) []string {
	var links []string
	if md, ok := m.Media.(*tg.MessageMediaWebPage); ok {
		if page, ok := md.Webpage.(*tg.WebPage); ok && page.URL != "" {
			links = append(links, page.URL)
		}
	}
	return append(links, ExtractLinks(m.Text)...)
}

func isAnimated(docu *tg.Document) bool {
	for _, attr := range docu.Attributes {
		if _, ok := attr.(*tg.DocumentAttributeAnimated); ok {
			return true
		}
	}
	return false
}

func origFileName(docu *tg.Document) string {
	for _, attr := range docu.Attributes {
		if fn, ok := attr.(*tg.DocumentAttributeFilename); ok {
			return fn.FileName
		}
	}
	return ""
}

// docFileName 有原始文件名时拼在后面，否则按mime类型补扩展名，兜底.bin
func docFileName(gid int64, mid int, orig, mimeType string) string {
	if orig != "" {
		return fmt.Sprintf("%d_%d_%s", gid, mid, path.Base(orig))
	}
	xlis := strings.Split(mimeType, "/")
	if len(xlis) >= 2 && xlis[len(xlis)-1] != "" {
		return fmt.Sprintf("%d_%d.%s", gid, mid, xlis[len(xlis)-1])
	}
	return fmt.Sprintf("%d_%d.bin", gid, mid)
}

func gifExt(mimeType string) string {
	switch mimeType {
	case "image/gif":
		return ".gif"
	case "video/mp4", "":
		return ".mp4"
	default:
		xlis := strings.Split(mimeType, "/")
		if len(xlis) >= 2 && xlis[len(xlis)-1] != "" {
			return "." + xlis[len(xlis)-1]
		}
		return ".mp4"
	}
}
