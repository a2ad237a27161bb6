package global

import (
	"github.com/notesphere/note-sync-service/pkg/fileurl"
)

var (
	// 程序执行目录
	ROOT string
	Name string = "NoteSphere Sync Service"
)

func init() {

	filename := fileurl.GetExePath()
	ROOT = filename + "/"

}
