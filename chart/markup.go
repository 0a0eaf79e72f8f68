package chart

import "html"

func loadingMarkup(text string) string {
	return `<div class="text-center p-5"><div class="spinner-border text-primary" role="status"></div><p class="mt-2">` +
		html.EscapeString(text) + `</p></div>`
}

func imageMarkup(src, alt string) string {
	return `<img src="` + html.EscapeString(src) + `" class="img-fluid mx-auto d-block" alt="` + html.EscapeString(alt) + `">`
}

func alertMarkup(kind, text string) string {
	return `<div class="alert alert-` + kind + `">` + html.EscapeString(text) + `</div>`
}
