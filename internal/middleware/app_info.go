package middleware

import (
	"github.com/notesphere/note-sync-service/global"

	"github.com/gin-gonic/gin"
)

func AppInfo() gin.HandlerFunc {

	return func(c *gin.Context) {
		c.Set("app_name", global.Name)

		c.Next()
	}
}
