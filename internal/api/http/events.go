package httpapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/i474232898/openwx/internal/bus"
	"github.com/i474232898/openwx/internal/logger"
)

const keepAliveInterval = 15 * time.Second

// eventsHandler streams bus messages as server-sent events. Each client gets its own
// subscription, so a slow client only misses its own messages.
func eventsHandler(b *bus.Bus, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		sub := b.Subscribe("events", 0)
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer sub.Close()

			ticker := time.NewTicker(keepAliveInterval)
			defer ticker.Stop()

			fmt.Fprint(w, ": connected\n\n")
			if err := w.Flush(); err != nil {
				return
			}
			for {
				select {
				case msg, ok := <-sub.C():
					if !ok {
						return
					}
					payload, err := json.Marshal(msg)
					if err != nil {
						log.Warnw("encode event", "kind", msg.Kind, "err", err)
						continue
					}
					fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Kind, payload)
				case <-ticker.C:
					fmt.Fprint(w, ": ping\n\n")
				}
				if err := w.Flush(); err != nil {
					log.Debugw("event client disconnected", "err", err)
					return
				}
			}
		}))
		return nil
	}
}
