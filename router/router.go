package router

import (
	"blobvault/internal/handler"
	"blobvault/utils"

	"github.com/gin-gonic/gin"
)

// InitRouter builds API routes.
func InitRouter() *gin.Engine {
	r := gin.Default()
	r.Use(utils.CORSMiddleware())

	api := r.Group("/api")
	{
		api.POST("/access/token", handler.CreateToken)
		api.GET("/files/signed/:token", handler.SignedContents)

		auth := api.Group("")
		auth.Use(utils.AuthMiddleware())

		access := auth.Group("/access")
		{
			access.POST("", handler.CreateAccess)
			access.POST("/:id/reset", handler.ResetAccess)
			access.DELETE("/:id", handler.DeleteAccess)
		}

		object := auth.Group("/objects")
		{
			object.GET("", handler.ListObjects)
			object.GET("/by-key", handler.GetObject)
			object.GET("/:id", handler.GetObjectByID)
			object.POST("", handler.CreateObject)
			object.PUT("", handler.EditObject)
			object.GET("/:id/contents", handler.ReadObject)
			object.POST("/:id/append", handler.AppendObject)
			object.PUT("/:id/move", handler.MoveObject)
			object.DELETE("/:id", handler.DeleteObject)
		}

		auth.POST("/files/signed-token", handler.CreateSignedToken)
		auth.POST("/uploads", handler.CreateUpload)

		// part and finish authenticate with the upload token in the path
		api.PUT("/uploads/:token/parts/:index", handler.UploadPart)
		api.POST("/uploads/:token/finish", handler.FinishUpload)
	}
	return r
}
