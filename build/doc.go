// Package build compiles a site's content directory into posters.
//
//	cfg, _ := config.Load("site.json")
//	rc := build.NewController(cfg)
//	sess, _ := build.NewSession(ctx, cfg, rc)
//	defer sess.Close()
//
//	res, err := build.New(cfg, sess, build.WithResourceController(rc)).Build(ctx)
//
// Sources are compiled in parallel, bounded by cfg.Workers and the
// controller's background slots. Each poster is checked once with
// htmlcheck; when its effective strict flag is set, HTML problems fail
// that source.
package build
