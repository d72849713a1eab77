// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianChem/services/chemist/engine"
	"github.com/AleutianAI/AleutianChem/services/chemist/handlers"
	"github.com/AleutianAI/AleutianChem/services/llm"
)

// SetupRoutes registers the chemist service endpoints on the router.
func SetupRoutes(router *gin.Engine, llmClient llm.LLMClient, oracle engine.Oracle) {
	router.Use(corsMiddleware())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/optimize", handlers.HandleOptimize(llmClient, oracle))
		v1.POST("/score", handlers.HandleScore(oracle))
	}
}

// corsMiddleware allows cross-origin access from the research notebook UIs.
// The service carries no credentials, so allow-all is acceptable here.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
