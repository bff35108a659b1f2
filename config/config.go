package config

import "time"

type Config struct {
	Web     Web
	Cors    Cors
	DB      DB
	Static  Static
	Session Session
	Upload  Upload
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:3000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

// DB configures the catalog database. An empty DSN means the server
// runs on the built-in seed catalog instead.
type DB struct {
	DSN          string
	MaxOpenConns int `conf:"default:4"`
}

type Static struct {
	Dir string `conf:"default:./dist"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:24h"`
}

type Upload struct {
	MaxBytes    int64         `conf:"default:8388608"`
	LimitRPS    float64       `conf:"default:5"`
	LimitBurst  int           `conf:"default:10"`
	LimitExpiry time.Duration `conf:"default:10m"`
}
