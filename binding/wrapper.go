package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/bytedance/sonic"

	"github.com/steosofficial/koreanmorphy/analyzer"
	"github.com/steosofficial/koreanmorphy/model"
)

var (
	mu            sync.RWMutex
	morphAnalyzer *analyzer.Komoran
	resources     *model.Resources
)

type analysis struct {
	Tokens    []analyzer.Token `json:"tokens,omitempty"`
	PlainText string           `json:"plainText,omitempty"`
	Error     string           `json:"error,omitempty"`
}

//export CreateAnalyzer
func CreateAnalyzer(modelPath *C.char) C.int {
	res, err := model.Load(C.GoString(modelPath))
	if err != nil {
		return 1
	}
	mu.Lock()
	defer mu.Unlock()
	if resources != nil {
		resources.Close()
	}
	resources = res
	morphAnalyzer = analyzer.New(res)
	return 0
}

//export AnalyzeText
func AnalyzeText(text *C.char, spacing C.int) *C.char {
	goText := C.GoString(text)

	mu.RLock()
	defer mu.RUnlock()
	var ans analysis
	switch {
	case morphAnalyzer == nil:
		ans.Error = "analyzer not created"
	case spacing != 0:
		res := morphAnalyzer.AnalyzeWithSpacing(goText)
		ans.Tokens, ans.PlainText = res.Tokens, res.PlainText()
	default:
		res, err := morphAnalyzer.Analyze(goText)
		if err != nil {
			ans.Error = err.Error()
			break
		}
		ans.Tokens, ans.PlainText = res.Tokens, res.PlainText()
	}
	data, err := sonic.MarshalString(ans)
	if err != nil {
		data = `{"error":"failed to encode analysis"}`
	}
	return C.CString(data)
}

//export FreeString
func FreeString(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

//export ReleaseAnalyzer
func ReleaseAnalyzer() {
	mu.Lock()
	defer mu.Unlock()
	morphAnalyzer = nil
	if resources != nil {
		resources.Close()
		resources = nil
	}
}

func main() {}
