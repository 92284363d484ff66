// Package htmlcheck finds structural problems in compiled poster HTML.
//
// The only built-in rule checks the heading outline:
//
//	<h1>Title</h1><h2>A</h2><h3>B</h3>   ok
//	<h2>A</h2><h1>Title</h1>             heading before <h1>
//	<h1>Title</h1><h3>B</h3>             using <h2> before using <h3>!
package htmlcheck
