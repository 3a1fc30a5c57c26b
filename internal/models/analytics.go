package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageView is one fire-and-forget analytics event. It is produced on the
// request path and drained into Mongo by a background goroutine; losing
// events under pressure is acceptable, blocking a request is not.
type PageView struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Path      string             `bson:"path" json:"path"`
	ClientIP  string             `bson:"clientIp" json:"client_ip"`
	UserAgent string             `bson:"userAgent,omitempty" json:"user_agent,omitempty"`
	Referrer  string             `bson:"referrer,omitempty" json:"referrer,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}
