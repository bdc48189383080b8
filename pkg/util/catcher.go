package util

import (
	"fmt"

	"github.com/pkg/errors"
)

// TryCatchBlock represents struct for try-catch-finally control flow
type TryCatchBlock struct {
	Try     func()
	Catch   func(error)
	Finally func()
}

// Do executes TryCatchBlock try-catch-finally control flow
func (tcf TryCatchBlock) Do() {
	if tcf.Finally != nil {
		defer tcf.Finally()
	}
	if tcf.Catch != nil {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("%v", r)
				}
				tcf.Catch(err)
			}
		}()
	}
	tcf.Try()
}

// CatchErrs runs fn and turns a panic inside it into a returned error.
// Radio libraries panic on some HCI failures; callers only ever see errors.
func CatchErrs(fn func() error) (err error) {
	TryCatchBlock{
		Try: func() { err = fn() },
		Catch: func(e error) {
			err = errors.Wrap(e, "recovered from panic")
		},
	}.Do()
	return
}
