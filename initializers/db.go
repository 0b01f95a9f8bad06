package initializers

import (
	log "github.com/sirupsen/logrus"
	"microloan-backend/config"
	"microloan-backend/db"
)

func InitDBConnection() {
	conf := config.Conf.Database
	err := db.Connect(conf.Host, conf.Port, conf.Name, conf.User, conf.Password, *conf.DebugMode, *conf.MigrateOnStart)
	if err != nil {
		panic(err.Error())
	}
	if err = db.PingDB(); err != nil {
		panic(err.Error())
	}
	log.WithField("host", conf.Host).WithField("database", conf.Name).Info("database connected")
}
