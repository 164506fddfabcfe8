package mongo

import "time"

type ClientConfig struct {
	URI      string        `kdl:"uri"`
	Username string        `kdl:"username"`
	Password string        `kdl:"password"`
	Timeout  time.Duration `kdl:"timeout"`
}

type Config struct {
	ClientConfig
	Database   string `kdl:"database"`
	Collection string `kdl:"collection"`
}
