package filter_test

import (
	"context"
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgbulk/filter"
	"tgbulk/history"
)

// fakeIter 纯内存的上游迭代器，记录被拉取的条数
type fakeIter struct {
	msgs  []history.Message
	i     int
	cur   history.Message
	err   error
	pulls int
}

func (f *fakeIter) Next(ctx context.Context) bool {
	if f.i >= len(f.msgs) {
		return false
	}
	f.cur = f.msgs[f.i]
	f.i++
	f.pulls++
	return true
}

func (f *fakeIter) Value() history.Message { return f.cur }

func (f *fakeIter) Err() error { return f.err }

func photoMsg(id int, text string) history.Message {
	return history.Message{
		ID:   id,
		Date: time.Now(),
		Text: text,
		Media: &tg.MessageMediaPhoto{
			Photo: &tg.Photo{ID: int64(id)},
		},
	}
}

func docMsg(id int, name, mime string) history.Message {
	attrs := []tg.DocumentAttributeClass{}
	if name != "" {
		attrs = append(attrs, &tg.DocumentAttributeFilename{FileName: name})
	}
	return history.Message{
		ID:   id,
		Date: time.Now(),
		Media: &tg.MessageMediaDocument{
			Document: &tg.Document{ID: int64(id), MimeType: mime, Attributes: attrs},
		},
	}
}

func gifMsg(id int, text string) history.Message {
	return history.Message{
		ID:   id,
		Date: time.Now(),
		Text: text,
		Media: &tg.MessageMediaDocument{
			Document: &tg.Document{
				ID:       int64(id),
				MimeType: "video/mp4",
				Attributes: []tg.DocumentAttributeClass{
					&tg.DocumentAttributeAnimated{},
				},
			},
		},
	}
}

func textMsg(id int, text string) history.Message {
	return history.Message{ID: id, Date: time.Now(), Text: text}
}

func collect(t *testing.T, fl *filter.Filter) []int {
	t.Helper()
	var ids []int
	for fl.Next(context.Background()) {
		ids = append(ids, fl.Value().ID)
	}
	require.NoError(t, fl.Err())
	return ids
}

func TestQualifyDate(t *testing.T) {
	cfg := filter.Config{
		MediaType: filter.TypeAll,
		MinDate:   time.Now().Add(-3 * 24 * time.Hour),
	}

	old := photoMsg(1, "")
	old.Date = time.Now().Add(-10 * 24 * time.Hour)
	assert.False(t, filter.Qualify(old, cfg))

	fresh := photoMsg(2, "")
	assert.True(t, filter.Qualify(fresh, cfg))
}

func TestQualifyContains(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		contains string
		want     bool
	}{
		{name: "exact", text: "funny gif", contains: "funny", want: true},
		{name: "case insensitive", text: "FUNNY gif", contains: "funny", want: true},
		{name: "missing", text: "boring", contains: "funny", want: false},
		{name: "unset matches all", text: "", contains: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := filter.Config{MediaType: filter.TypePhotos, Contains: tt.contains}
			got := filter.Qualify(photoMsg(1, tt.text), cfg)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQualifyMediaType(t *testing.T) {
	photo := photoMsg(1, "")
	doc := docMsg(2, "a.pdf", "application/pdf")
	gif := gifMsg(3, "")
	link := textMsg(4, "check this http://a.co")
	plain := textMsg(5, "hello")

	tests := []struct {
		name string
		mt   filter.MediaType
		msg  history.Message
		want bool
	}{
		{name: "photos accepts photo", mt: filter.TypePhotos, msg: photo, want: true},
		{name: "photos rejects doc", mt: filter.TypePhotos, msg: doc, want: false},
		{name: "photos rejects no media", mt: filter.TypePhotos, msg: plain, want: false},
		{name: "documents accepts doc", mt: filter.TypeDocuments, msg: doc, want: true},
		{name: "documents rejects gif", mt: filter.TypeDocuments, msg: gif, want: false},
		{name: "gifs accepts gif", mt: filter.TypeGifs, msg: gif, want: true},
		{name: "gifs rejects doc", mt: filter.TypeGifs, msg: doc, want: false},
		{name: "links accepts text url", mt: filter.TypeLinks, msg: link, want: true},
		{name: "links rejects photo", mt: filter.TypeLinks, msg: photo, want: false},
		{name: "links rejects plain text", mt: filter.TypeLinks, msg: plain, want: false},
		{name: "all accepts photo", mt: filter.TypeAll, msg: photo, want: true},
		{name: "all accepts link", mt: filter.TypeAll, msg: link, want: true},
		{name: "all rejects plain text", mt: filter.TypeAll, msg: plain, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.Qualify(tt.msg, filter.Config{MediaType: tt.mt})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLinksMode(t *testing.T) {
	src := &fakeIter{msgs: []history.Message{
		textMsg(1, "check this http://a.co"),
		photoMsg(2, "photo!"),
	}}
	fl := filter.New(src, filter.Config{MediaType: filter.TypeLinks})
	assert.Equal(t, []int{1}, collect(t, fl))
}

func TestGifWithContains(t *testing.T) {
	src := &fakeIter{msgs: []history.Message{gifMsg(1, "funny gif")}}
	fl := filter.New(src, filter.Config{MediaType: filter.TypeGifs, Contains: "funny"})
	assert.Equal(t, []int{1}, collect(t, fl))
}

func TestMaxMessagesBound(t *testing.T) {
	msgs := make([]history.Message, 0, 150)
	for i := 1; i <= 150; i++ {
		msgs = append(msgs, photoMsg(i, ""))
	}
	src := &fakeIter{msgs: msgs}
	fl := filter.New(src, filter.Config{MediaType: filter.TypePhotos, MaxMessages: 100})

	ids := collect(t, fl)
	assert.Len(t, ids, 100)
	assert.Equal(t, 100, ids[99])
	// 达到上限后不再从上游拉取，剩余消息不被翻页
	assert.Equal(t, 100, src.pulls)
}

func TestUnlimited(t *testing.T) {
	msgs := make([]history.Message, 0, 30)
	for i := 1; i <= 30; i++ {
		msgs = append(msgs, photoMsg(i, ""))
	}
	src := &fakeIter{msgs: msgs}
	fl := filter.New(src, filter.Config{MediaType: filter.TypePhotos, MaxMessages: 0})

	assert.Len(t, collect(t, fl), 30)
	assert.Equal(t, 30, src.pulls)
}

func TestBoundCountsQualifyingOnly(t *testing.T) {
	// 上限按通过过滤的条数计，被拒绝的消息不占名额
	src := &fakeIter{msgs: []history.Message{
		textMsg(1, "skip"),
		photoMsg(2, ""),
		textMsg(3, "skip"),
		photoMsg(4, ""),
		photoMsg(5, ""),
	}}
	fl := filter.New(src, filter.Config{MediaType: filter.TypePhotos, MaxMessages: 2})
	assert.Equal(t, []int{2, 4}, collect(t, fl))
}

func TestFilterPure(t *testing.T) {
	build := func() []history.Message {
		return []history.Message{
			textMsg(1, "check this http://a.co"),
			photoMsg(2, "photo!"),
			docMsg(3, "a.pdf", "application/pdf"),
		}
	}
	cfg := filter.Config{MediaType: filter.TypeAll}

	msgs := build()
	first := collect(t, filter.New(&fakeIter{msgs: msgs}, cfg))
	second := collect(t, filter.New(&fakeIter{msgs: msgs}, cfg))
	assert.Equal(t, first, second)
	// 过滤不修改输入消息
	assert.Equal(t, build()[0].Text, msgs[0].Text)
	assert.Equal(t, build()[1].ID, msgs[1].ID)
}

func TestErrPassthrough(t *testing.T) {
	src := &fakeIter{err: assert.AnError}
	fl := filter.New(src, filter.Config{MediaType: filter.TypeAll})
	assert.False(t, fl.Next(context.Background()))
	assert.ErrorIs(t, fl.Err(), assert.AnError)
}
