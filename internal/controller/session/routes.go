package session

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the session API under api.
func RegisterRoutes(api *gin.RouterGroup, upload *UploadController, interviews *InterviewController, reports *ReportController) {
	api.POST("/uploads", upload.Upload)

	ig := api.Group("/interviews/:session_id")
	{
		ig.GET("", interviews.GetState)
		ig.DELETE("", interviews.Abandon)
		ig.POST("/play", interviews.Play)
		ig.POST("/recording/start", interviews.StartRecording)
		ig.POST("/recording/stop", interviews.StopRecording)
		ig.POST("/evaluation/retry", interviews.RetryEvaluation)
		ig.POST("/skip", interviews.Skip)
		ig.POST("/next", interviews.Next)
	}

	api.GET("/results/:session_id", reports.GetReport)
}
