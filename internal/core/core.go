// Package core bundles the shared, immutable set of services every other
// component is constructed from — the config-object substitute for ambient
// dependency injection named in the design notes.
package core

import (
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/blob"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/clock"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/configsvc"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/datasourcesvc"
)

// Services is passed into every constructor in the system instead of
// reaching for ambient/global state.
type Services struct {
	DB          *sql.DB
	Config      *configsvc.Service
	DataSources *datasourcesvc.Service
	Blob        blob.Uploader
	Clock       clock.Clock
	Log         *logrus.Logger
}
