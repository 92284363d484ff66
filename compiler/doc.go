// Package compiler turns Markdown source files into posters.
//
// A source file starts with a JSON head between <!--INFOS-- and a line
// starting with --INFOS-->:
//
//	<!--INFOS--
//	{
//	  "Title": "Hello",
//	  "CreateTime": "2024-05-01T12:00:00Z",
//	  "Attributes": { "tags": ["go"] },
//	  "Strict": true
//	}
//	--INFOS-->
//	# Hello
//
// The Markdown after the head is rendered with goldmark and stored as a
// reclaimable poster whose compiled path is derived from the source path.
package compiler
