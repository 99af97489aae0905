package db

import (
	"database/sql"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var db *sql.DB

// FileRecord 每个下载完成的文件在库里留一条记录，供查询工具使用。
// 跳过重复下载只看目标文件是否存在，不依赖本表。
type FileRecord struct {
	Gid   int64  `json:"gid"`
	Mid   int    `json:"mid"`
	Kind  string `json:"kind"` // photo/document/gif/links
	Fname string `json:"fname"`
	Dname string `json:"dname"`
	Fpath string `json:"fpath"`
	Fsize int64  `json:"fsize"`
	Ftime string `json:"ftime"`
	Msg   string `json:"msg"`
}

func DbInit(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite", dbPath+"?_pragma=journal_mode=WAL&_pragma=busy_timeout(5000)") // 缓解多进程竞争问题
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS files (
		fpath TEXT PRIMARY KEY,
		gid INTEGER,
		mid INTEGER,
		kind TEXT,
		fname TEXT,
		dname TEXT,
		fsize INTEGER,
		msg TEXT,
		ftime TIMESTAMP,
		created TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_files_dname ON files(dname);`)
	return err
}

func DbCheckFile(dname string) ([]*FileRecord, error) {
	rows, err := db.Query("SELECT gid, mid, kind, fname, dname, fpath, fsize, msg, ftime FROM files WHERE dname = ?;", dname)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	flis := make([]*FileRecord, 0, 3)
	for rows.Next() {
		var file FileRecord
		err = rows.Scan(&file.Gid, &file.Mid, &file.Kind, &file.Fname, &file.Dname, &file.Fpath, &file.Fsize, &file.Msg, &file.Ftime)
		if err != nil {
			continue
		}
		flis = append(flis, &file)
	}
	return flis, nil
}

func DbNewFile(logger *logrus.Logger, file *FileRecord) bool {
	funcName := "DbNewFile"
	tx, err := db.Begin()
	if err != nil {
		logger.Errorf("%s|begin error: %v", funcName, err.Error())
		return false
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	insertStmt, err := tx.Prepare(`
            INSERT OR IGNORE INTO files
            (fpath, gid, mid, kind, fname, dname, fsize, msg, ftime)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		logger.Errorf("%s|prepare insert error: %v", funcName, err.Error())
		return false
	}
	defer insertStmt.Close()

	_, err = insertStmt.Exec(
		file.Fpath,
		file.Gid,
		file.Mid,
		file.Kind,
		file.Fname,
		file.Dname,
		file.Fsize,
		file.Msg,
		file.Ftime,
	)
	if err != nil {
		logger.Warningf("%s|exec insert error|%v: %v", funcName, *file, err.Error())
		return false
	}
	err = tx.Commit()
	if err != nil {
		logger.Errorf("%s|commit error: %v", funcName, err.Error())
		return false
	}
	return true
}
