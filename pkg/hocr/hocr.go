// Package hocr reads hOCR, the HTML-based OCR output format of Tesseract and
// similar engines, into a layout document.
//
// The hOCR hierarchy maps onto the layout tree as follows:
//
// - ocr_page: Page, sized by its bbox
// - ocr_par: text block, or a title block when every line is an ocr_header
// - ocr_line, ocr_header, ocr_caption, ocr_textfloat: Line
// - ocrx_word: Span, with x_wconf/100 as its score
// - ocr_photo, ocr_image, ocr_graphic: image block using the image property
//
// Lines found outside any paragraph become single-line blocks of their own.
package hocr
