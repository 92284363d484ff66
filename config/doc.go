// Package config loads the site configuration.
//
// JSON files may carry // and /* */ comments and trailing commas; files
// ending in .yaml or .yml are read as YAML. Missing fields take their
// defaults:
//
//	{
//	  // where compiled posters live
//	  "CacheDirectory": ".cache",
//	  "Store": { "Backend": "s3", "Bucket": "my-site", "Prefix": "posters/" },
//	}
package config
