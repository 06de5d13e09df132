// Package manifest defines the list of files to download.
//
// A manifest is a YAML document with one record per file:
//
//	items:
//	  - url: https://example.com/data/model.bin
//	    file: model.bin
//	    sha256: 9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08
//	  - url: https://example.com/data/scores.tsv.gz
//	    file: scores.tsv.gz
//	    gunzip: true
//
// The sha256 field is optional; items without it are downloaded but cannot
// be validated. The legacy layout of three parallel lists is also accepted:
//
//	urls: [...]
//	files: [...]
//	hashes: [...]
//
// urls and files must have equal length; hashes may be shorter, in which
// case trailing items simply have no hash.
package manifest
