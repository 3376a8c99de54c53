// Package espeak speaks text through libespeak-ng.
package espeak

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

static int initialized = 0;

int
espeak_say(const char *text, const char *lang, int rate)
{
	if (!text)
	{ return -1; }

	if (!initialized)
	{
		if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
		{ return -2; }
		initialized = 1;
	}

	espeak_VOICE specs = { .languages = lang };
	espeak_SetVoiceByProperties(&specs);
	espeak_SetParameter(espeakRATE, rate, 0);

	espeak_Synth(text, 500, 0, 0, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();

	return 0;
}

void
espeak_close(void)
{
	if (initialized)
	{
		espeak_Terminate();
		initialized = 0;
	}
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

type Voice struct {
	lang string
	rate int
}

// New returns a voice for lang ("en", "ru", ...) at rate words per minute.
func New(lang string, rate int) *Voice {
	if lang == "" {
		lang = "en"
	}
	if rate <= 0 {
		rate = 150
	}

	return &Voice{lang: lang, rate: rate}
}

// Speak blocks until text has been played.
func (v *Voice) Speak(text string) error {
	if text == "" {
		return nil
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	clang := C.CString(v.lang)
	defer C.free(unsafe.Pointer(clang))

	rc := C.espeak_say(ctext, clang, C.int(v.rate))
	if rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}

	return nil
}

func (v *Voice) Close() {
	C.espeak_close()
}
