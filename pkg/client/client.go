package client

import (
	"time"

	"tourdesk/pkg/logger"
)

// Client groups the external connections the application holds open.
type Client struct {
	Mongo *MongoClient
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, connTimeout time.Duration) {
	c.Mongo = NewMongoClient(log, mongoURI, connTimeout)
}
