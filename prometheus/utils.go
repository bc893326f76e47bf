package prometheus

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const unmatchedPath = "unmatched"

// Middleware measures every request handled by the engine, labelled by its route pattern.
func Middleware(client PrometheusClient, serviceName, version string) gin.HandlerFunc {
	return func(g *gin.Context) {
		init := time.Now()
		reqData := prepareRequestInfo(g, serviceName, version)
		client.OpenRequest(reqData)

		g.Next()

		client.ObserveDuration(reqData, init)
		client.CloseRequest(reqData, strconv.Itoa(g.Writer.Status()))
	}
}

func prepareRequestInfo(g *gin.Context, serviceName, version string) RequestData {
	// Raw paths would give every unknown URL its own series.
	path := g.FullPath()
	if path == "" {
		path = unmatchedPath
	}
	return RequestData{
		ServiceName: serviceName,
		Version:     version,
		Method:      g.Request.Method,
		Path:        path,
	}
}
