package middleware

import "github.com/gin-gonic/gin"

type requestRecorder interface {
	RecordHTTPRequest(route string, status int)
}

// Metrics counts finished requests by matched route and status code.
func Metrics(collector requestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.RecordHTTPRequest(route, c.Writer.Status())
	}
}
