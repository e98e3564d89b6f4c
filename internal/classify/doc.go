// Package classify decides whether a candidate file is an Ableton Live
// project file, a project archive, or a keyword-matched artifact.
//
// Classification combines three signals with fixed precedence: the filename
// extension (.als, .alp), a sniffed header prefix (XML declaration or Ableton
// root element for sets, ZIP local-file-header for containers), and
// case-folded keyword substrings. Extensions decide without opening the file;
// header bytes are only sniffed when the extension is inconclusive.
//
// The Classifier is pure and safe for concurrent workers. Callers own the
// header read and its failure handling, so a file that cannot be opened still
// classifies from its name alone.
package classify
