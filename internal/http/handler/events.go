package handler

import (
	"bufio"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/florinivan/asdallinkickboxing/internal/service"
)

const eventsHeartbeat = 15 * time.Second

// DocumentEvents streams a live view of the archive as server-sent events.
// The same query parameters as the search endpoint scope the view. Each
// "documents" event carries the complete matching result set: the current
// matches right away, then a fresh set after every change, so clients
// replace their listing wholesale instead of replaying a change log. A 503
// tells them to fall back to polling.
func DocumentEvents(docs service.DocumentManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, ok := searchFilterFromQuery(c)
		if !ok {
			return nil
		}

		sub, err := docs.Subscribe(c.UserContext(), filter)
		if err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SUBSCRIBE_FAILED", "change feed unavailable")
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer sub.Unsubscribe()

			heartbeat := time.NewTicker(eventsHeartbeat)
			defer heartbeat.Stop()

			for {
				select {
				case docs, open := <-sub.C:
					if !open {
						return
					}
					payload, err := json.Marshal(docs)
					if err != nil {
						continue
					}
					if _, err := w.WriteString("event: documents\ndata: " + string(payload) + "\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						return
					}
				case <-heartbeat.C:
					// Comment line keeps intermediaries from closing the stream.
					if _, err := w.WriteString(": ping\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						return
					}
				}
			}
		}))
		return nil
	}
}
