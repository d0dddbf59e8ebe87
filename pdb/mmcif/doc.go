// Package mmcif reads a file in mmcif/cif format.
// Reading mmcif files is interesting because they are so big,
// but we do not want much information from them.
// If one looks at the format there are some features that make it
// simpler.
// 1. The first character on the line is decisive. If it is a data item
// it has to be a "_". A loop starts with loop_
// 2. Values are separated by white space, unless they are quoted or sit
// in a text field which starts and ends with a ";" at the start of a line.
//
// Overall structure
// A caller registers a function for each category it cares about, like
// atom_site. Everything else is jumped over. When we meet a registered
// table, the function gets a Table and pulls rows out of it with Next().
// Rows are read from the file as they are asked for, so a table of a
// million atoms is never held in memory as strings.
// If a category is written as a set of data items rather than a loop,
// which happens when there is only one row, the items are collected
// and handed over as a table with one row. The caller cannot tell the
// difference.
//
// Notes about the mmcif format...
// A question mark, ?, means a missing value.
// A dot, ., means not appropriate or deliberately left out.
// Category and column names are case insensitive.
package mmcif
