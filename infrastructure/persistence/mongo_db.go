package persistence

import (
	"fmt"
	"net/url"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func MongoURI(host, port, user, password string) string {
	u := &url.URL{Scheme: "mongodb", Host: fmt.Sprintf("%s:%s", host, port)}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}

// NewMongoDb connects lazily; callers Ping before relying on the client.
func NewMongoDb(host, port, user, password, name string) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(MongoURI(host, port, user, password)).SetAppName(name)
	return mongo.Connect(opts)
}
