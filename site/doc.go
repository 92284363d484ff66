// Package site writes the files published next to the compiled pages:
// an RSS 2.0 feed, a sitemap and robots.txt.
//
//	files, err := site.Generate(cfg, res.Posters, time.Now())
//	if err != nil {
//		return err
//	}
//	_, err = site.Write(ctx, blobstore.NewLocalStore(""), cfg.Path(cfg.OutputDirectory), files)
//
// Page links are built from cfg.RootURL and each poster's source path
// below the content directory, so a.md becomes <root>/a.html. A "Link"
// attribute overrides that.
package site
