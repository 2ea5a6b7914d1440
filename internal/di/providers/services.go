package providers

import (
	"github.com/samber/do/v2"

	"github.com/daylogapp/daylog-server/internal/config"
	"github.com/daylogapp/daylog-server/internal/export"
	"github.com/daylogapp/daylog-server/internal/logger"
	"github.com/daylogapp/daylog-server/internal/service"
	"github.com/daylogapp/daylog-server/internal/validation"
)

// ProvideDayTagService provides the day tag service.
func ProvideDayTagService(i do.Injector) (*service.DayTagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDayTagService(storeHandle.Store, v, log.Logger), nil
}

// ProvideExporter provides the export orchestrator. Artifacts go to the
// configured export directory; sharing copies into SHARE_DIR when set and
// otherwise hands off to the OS opener.
func ProvideExporter(i do.Injector) (*export.Exporter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	var sharer export.Sharer
	if cfg.Export.ShareDir != "" {
		sharer = export.NewDirSharer(cfg.Export.ShareDir)
	} else {
		sharer = export.NewOpenSharer()
	}

	aggregator := export.NewAggregator(storeHandle.Store, storeHandle.Store, v)
	exporter := export.NewExporter(aggregator, export.NewFileSink(cfg.Export.Dir), sharer, log.Logger)

	log.Info("Exporter ready",
		"export_dir", cfg.Export.Dir,
		"share_dir", cfg.Export.ShareDir,
	)

	return exporter, nil
}
