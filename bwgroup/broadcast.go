/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bwgroup

import (
	"github.com/acronis/go-bwlimit/log"
)

// suspendAllLocked calls the suspend callback of every member in list order.
func (g *Group) suspendAllLocked(dir Direction) {
	for _, h := range g.members {
		h.suspendLocked(dir)
	}
	g.metrics.IncSuspensions(dir)
	g.logBroadcastLocked("suspend", dir)
}

// resumeAllLocked calls the resume callback of every member exactly once,
// walking from a randomly chosen member to the tail and then from the head up to it.
func (g *Group) resumeAllLocked(dir Direction) {
	n := len(g.members)
	if n == 0 {
		return
	}
	start := g.rand.Intn(n)
	for i := 0; i < n; i++ {
		g.members[(start+i)%n].resumeLocked(dir)
	}
	g.metrics.IncResumes(dir)
	g.logBroadcastLocked("resume", dir, log.Int("start", start))
}

func (g *Group) logBroadcastLocked(kind string, dir Direction, fields ...log.Field) {
	g.logger.AtLevel(log.LevelDebug, func(logFunc log.LogFunc) {
		fields = append(fields,
			log.String("direction", dir.String()),
			log.Int("members", len(g.members)),
			log.Int64("credit", g.creditLocked(dir)))
		logFunc("bandwidth "+kind+" broadcast", fields...)
	})
}
