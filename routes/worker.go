package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docurag-worker/middleware"
	"docurag-worker/models"
	"docurag-worker/services"
	"docurag-worker/utils"
)

// SetupWorkerRoutes registers the document processing and query
// endpoints behind the shared-secret check.
func SetupWorkerRoutes(router *gin.Engine, authMiddleware *middleware.AuthMiddleware, ingestion *services.IngestionPipeline, retrieval *services.RetrievalPipeline) {
	secured := router.Group("/")
	secured.Use(authMiddleware.RequireSecret())

	secured.POST("/process", func(c *gin.Context) {
		var req models.ProcessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		chunks, err := ingestion.ProcessDocument(c.Request.Context(), req.DocumentID, req.StorageURL, req.UserID)
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}

		c.JSON(http.StatusOK, models.ProcessResponse{
			Status: "success",
			Chunks: chunks,
		})
	})

	secured.POST("/query", func(c *gin.Context) {
		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		result, err := retrieval.QueryDocuments(c.Request.Context(), req.Query, req.UserID, req.DocumentIDs)
		if err != nil {
			utils.RespondWithInternalError(c, err.Error(), nil)
			return
		}

		c.JSON(http.StatusOK, result)
	})
}
