// Package events implements the process-wide state-change bus.
//
// The bus is a bounded ring shared by every subscriber. Publish never
// blocks: once the ring is full the oldest slot is overwritten, and a
// subscriber that had not read it gets a *LaggedError reporting how many
// events it skipped, then resumes from the oldest retained event.
//
// Client streams subscribe with a user id and receive every event; the
// payload is only included when the event originated from that user,
// otherwise Data is an empty object.
//
//	sub := bus.Subscribe(userID)
//	defer sub.Close()
//	for {
//	    msg, err := sub.Next(ctx)
//	    var lagged *events.LaggedError
//	    if errors.As(err, &lagged) {
//	        continue
//	    }
//	    if err != nil {
//	        return // context cancelled or bus closed
//	    }
//	    send(msg)
//	}
package events
