package db_test

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dm "tgbulk/db"
)

func TestFileLedger(t *testing.T) {
	require.NoError(t, dm.DbInit(filepath.Join(t.TempDir(), "files.db")))
	logger := logrus.New()

	file := &dm.FileRecord{
		Gid:   1234,
		Mid:   56,
		Kind:  "document",
		Fname: "report.pdf",
		Dname: "1234_56_report.pdf",
		Fpath: "/data/1234/1234_56_report.pdf",
		Fsize: 2048,
		Ftime: "2026-08-01 10:00:00",
		Msg:   "quarterly report",
	}
	assert.True(t, dm.DbNewFile(logger, file))

	// 同路径重复插入直接忽略
	assert.True(t, dm.DbNewFile(logger, file))

	flis, err := dm.DbCheckFile("1234_56_report.pdf")
	require.NoError(t, err)
	require.Len(t, flis, 1)
	assert.Equal(t, int64(1234), flis[0].Gid)
	assert.Equal(t, 56, flis[0].Mid)
	assert.Equal(t, "document", flis[0].Kind)
	assert.Equal(t, "report.pdf", flis[0].Fname)
	assert.Equal(t, int64(2048), flis[0].Fsize)
	assert.Equal(t, "quarterly report", flis[0].Msg)

	flis, err = dm.DbCheckFile("missing.bin")
	require.NoError(t, err)
	assert.Empty(t, flis)
}
