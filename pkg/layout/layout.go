// Package layout holds the page-layout tree that every other package in
// scanforge consumes, together with the codec for MinerU style layout.json
// files.
//
// The tree mirrors what an upstream document parser reports: a Document
// holds Pages, a Page holds content and discarded Blocks, a Block holds
// Lines and a Line holds Spans.
//
// All coordinates are source pixels with a top-left origin. Geometry that is
// missing or degenerate is kept in the tree but reported as invalid by
// BBox.Valid, so consumers can skip it without failing the whole run.
//
// Main Functions:
//
// - Parse: decodes layout.json data into a Document
// - Encode: writes a Document back to the same JSON shape
// - Validate: checks the structural requirements for rendering
// - Clone: deep copies a Document
package layout
