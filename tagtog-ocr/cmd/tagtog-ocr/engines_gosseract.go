//go:build gosseract

package main

import _ "github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/ocr/libtess"
