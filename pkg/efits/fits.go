package efits

import(
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"

	"github.com/abworrall/fits-stacker/pkg/eframe"
)

const maxKeyLen = 8 // FITS keywords are at most 8 chars

var(
	// Cards that describe the data layout; we regenerate these on save, so
	// never copy them into Metadata.Extra
	structuralKeys = map[string]bool{
		"SIMPLE": true, "BITPIX": true, "NAXIS": true, "NAXIS1": true, "NAXIS2": true,
		"NAXIS3": true, "EXTEND": true, "BZERO": true, "BSCALE": true, "END": true,
		"COMMENT": true, "HISTORY": true, "": true,
	}

	// Cards we lift into typed Metadata fields
	exposureKeys = []string{"EXPTIME", "EXPOSURE"}
	tempKeys     = []string{"CCD-TEMP", "CCD_TEMP"}
	gainKeys     = []string{"GAIN", "ISOSPEED"}
	filterKeys   = []string{"FILTER"}
	roleKeys     = []string{"FRAME", "IMAGETYP"}
)

func isKnownKey(k string) bool {
	for _, keys := range [][]string{exposureKeys, tempKeys, gainKeys, filterKeys, roleKeys} {
		for _, known := range keys {
			if k == known {
				return true
			}
		}
	}
	return false
}

func loadFITS(filename string, role eframe.FrameRole) (*eframe.Frame, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r fits '%s': %v", filename, err)
	}
	defer reader.Close()

	f, err := fitsio.Open(reader)
	if err != nil {
		return nil, fmt.Errorf("fits parsing '%s': %v", filename, err)
	}
	defer f.Close()

	if len(f.HDUs()) == 0 {
		return nil, fmt.Errorf("fits '%s': no HDUs", filename)
	}
	img, ok := f.HDU(0).(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("fits '%s': primary HDU is not an image", filename)
	}

	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) != 2 {
		return nil, fmt.Errorf("fits '%s': only 2D images are supported, got %d axes", filename, len(axes))
	}
	w, h := axes[0], axes[1]

	enc, vals, err := readSamples(img, w*h)
	if err != nil {
		return nil, fmt.Errorf("fits '%s': %w", filename, err)
	}

	fr, err := eframe.NewFrameFromValues(w, h, vals, role)
	if err != nil {
		return nil, fmt.Errorf("fits '%s': %v", filename, err)
	}
	fr.Encoding = enc
	fr.SourcePath = filename
	readMetadata(hdr, fr)

	return fr, nil
}

// readSamples maps BITPIX (plus the BZERO convention for unsigned ints)
// onto a PixelEncoding, and applies BSCALE/BZERO to every sample. Integer
// data with any other BSCALE/BZERO comes back tagged f64.
func readSamples(img fitsio.Image, n int) (eframe.PixelEncoding, []float64, error) {
	hdr := img.Header()
	bzero := cardFloatOr(hdr, "BZERO", 0.0)
	bscale := cardFloatOr(hdr, "BSCALE", 1.0)
	vals := make([]float64, n)

	var enc eframe.PixelEncoding
	var err error

	switch hdr.Bitpix() {
	case 8:
		enc = eframe.EncodingU8
		raw := make([]byte, n)
		if err = img.Read(&raw); err == nil {
			for i, v := range raw { vals[i] = float64(v) }
		}

	case 16:
		enc = eframe.EncodingI16
		if bzero == 32768 && bscale == 1 {
			enc = eframe.EncodingU16
		}
		raw := make([]int16, n)
		if err = img.Read(&raw); err == nil {
			for i, v := range raw { vals[i] = float64(v) }
		}

	case 32:
		enc = eframe.EncodingI32
		if bzero == 2147483648 && bscale == 1 {
			enc = eframe.EncodingU32
		}
		raw := make([]int32, n)
		if err = img.Read(&raw); err == nil {
			for i, v := range raw { vals[i] = float64(v) }
		}

	case 64:
		enc = eframe.EncodingI32 // no 64 bit int encoding; saved back as 32 bit
		raw := make([]int64, n)
		if err = img.Read(&raw); err == nil {
			for i, v := range raw { vals[i] = float64(v) }
		}

	case -32:
		enc = eframe.EncodingF32
		raw := make([]float32, n)
		if err = img.Read(&raw); err == nil {
			for i, v := range raw { vals[i] = float64(v) }
		}

	case -64:
		enc = eframe.EncodingF64
		if err = img.Read(&vals); err != nil {
			return enc, nil, fmt.Errorf("read pixels: %v", err)
		}

	default:
		return enc, nil, fmt.Errorf("%w: BITPIX=%d", eframe.ErrUnsupportedEncoding, hdr.Bitpix())
	}

	if err != nil {
		return enc, nil, fmt.Errorf("read pixels: %v", err)
	}

	if bzero != 0 || bscale != 1 {
		for i := range vals {
			vals[i] = bscale*vals[i] + bzero
		}
		// Any scaling other than the unsigned offset yields non-integer
		// physical values, which an integer encoding would round away on save.
		if !enc.IsFloat() && enc != eframe.EncodingU16 && enc != eframe.EncodingU32 {
			enc = eframe.EncodingF64
		}
	}

	return enc, vals, nil
}

func readMetadata(hdr *fitsio.Header, fr *eframe.Frame) {
	if v, ok := firstCardFloat(hdr, exposureKeys); ok {
		fr.ExposureTime = &v
	}
	if v, ok := firstCardFloat(hdr, tempKeys); ok {
		fr.Temperature = &v
	}
	if v, ok := firstCardFloat(hdr, gainKeys); ok {
		g := int(math.Round(v))
		fr.Gain = &g
	}
	for _, k := range filterKeys {
		if card := hdr.Get(k); card != nil {
			fr.Filter = strings.TrimSpace(fmt.Sprint(card.Value))
			break
		}
	}
	for _, k := range roleKeys {
		if card := hdr.Get(k); card != nil {
			if role, err := eframe.ParseFrameRole(fmt.Sprint(card.Value)); err == nil {
				fr.Role = role
				break
			}
		}
	}

	for _, k := range hdr.Keys() {
		if structuralKeys[k] || isKnownKey(k) {
			continue
		}
		if card := hdr.Get(k); card != nil {
			if fr.Extra == nil {
				fr.Extra = map[string]string{}
			}
			fr.Extra[k] = strings.TrimSpace(fmt.Sprint(card.Value))
		}
	}
}

func firstCardFloat(hdr *fitsio.Header, keys []string) (float64, bool) {
	for _, k := range keys {
		if card := hdr.Get(k); card != nil {
			if v, ok := toFloat(card.Value); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func cardFloatOr(hdr *fitsio.Header, key string, def float64) float64 {
	if v, ok := firstCardFloat(hdr, []string{key}); ok {
		return v
	}
	return def
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64: return x, true
	case float32: return float64(x), true
	case int:     return float64(x), true
	case int64:   return float64(x), true
	case int32:   return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	f, err := strconv.ParseFloat(fmt.Sprint(v), 64)
	return f, err == nil
}

// Save writes the frame as a single-HDU FITS file, using the frame's
// original PixelEncoding for the samples. Extra keys longer than 8
// characters are truncated; if that makes two keys collide (or an
// extra key collides with one we already wrote) only the first, in
// sorted key order, is kept.
func Save(fr *eframe.Frame, filename string) (err error) {
	if err := fr.Validate(); err != nil {
		return fmt.Errorf("save '%s': %w", filename, err)
	}
	if fr.Width == 0 || fr.Height == 0 {
		return fmt.Errorf("save '%s': can't write an empty (%dx%d) image", filename, fr.Width, fr.Height)
	}

	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close '%s': %v", filename, cerr)
		}
	}()

	f, err := fitsio.Create(writer)
	if err != nil {
		return fmt.Errorf("fits create '%s': %v", filename, err)
	}

	bitpix, data, cards := encodeSamples(fr)
	img := fitsio.NewImage(bitpix, []int{fr.Width, fr.Height})
	defer img.Close()

	cards = append(cards, metadataCards(fr)...)
	if err := img.Header().Append(cards...); err != nil {
		return fmt.Errorf("fits header '%s': %v", filename, err)
	}
	if err := img.Write(data); err != nil {
		return fmt.Errorf("fits pixels '%s': %v", filename, err)
	}
	if err := f.Write(img); err != nil {
		return fmt.Errorf("fits write '%s': %v", filename, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("fits close '%s': %v", filename, err)
	}
	return nil
}

// encodeSamples converts the working float64 samples back to the on-disk
// type, returning BITPIX, the typed slice, and any BZERO/BSCALE cards.
func encodeSamples(fr *eframe.Frame) (int, interface{}, []fitsio.Card) {
	vals := fr.Pixels.Values()
	enc := fr.Encoding
	q := func(i int) float64 { return enc.Quantize(vals[i]) }

	unsignedCards := func(zero float64) []fitsio.Card {
		return []fitsio.Card{
			{Name: "BZERO", Value: zero, Comment: "offset for unsigned integers"},
			{Name: "BSCALE", Value: 1.0, Comment: "default scaling factor"},
		}
	}

	switch enc {
	case eframe.EncodingU8:
		data := make([]byte, len(vals))
		for i := range vals { data[i] = byte(q(i)) }
		return 8, data, nil

	case eframe.EncodingU16:
		data := make([]int16, len(vals))
		for i := range vals { data[i] = int16(q(i) - 32768) }
		return 16, data, unsignedCards(32768)

	case eframe.EncodingI16:
		data := make([]int16, len(vals))
		for i := range vals { data[i] = int16(q(i)) }
		return 16, data, nil

	case eframe.EncodingU32:
		data := make([]int32, len(vals))
		for i := range vals { data[i] = int32(q(i) - 2147483648) }
		return 32, data, unsignedCards(2147483648)

	case eframe.EncodingI32:
		data := make([]int32, len(vals))
		for i := range vals { data[i] = int32(q(i)) }
		return 32, data, nil

	case eframe.EncodingF32:
		data := make([]float32, len(vals))
		for i := range vals { data[i] = float32(vals[i]) }
		return -32, data, nil
	}

	data := make([]float64, len(vals))
	copy(data, vals)
	return -64, data, nil
}

func metadataCards(fr *eframe.Frame) []fitsio.Card {
	cards := []fitsio.Card{}
	if fr.ExposureTime != nil {
		cards = append(cards, fitsio.Card{Name: "EXPTIME", Value: *fr.ExposureTime, Comment: "exposure time [s]"})
	}
	if fr.Temperature != nil {
		cards = append(cards, fitsio.Card{Name: "CCD-TEMP", Value: *fr.Temperature, Comment: "sensor temperature [C]"})
	}
	if fr.Gain != nil {
		cards = append(cards, fitsio.Card{Name: "GAIN", Value: *fr.Gain, Comment: "gain / ISO"})
	}
	if fr.Filter != "" {
		cards = append(cards, fitsio.Card{Name: "FILTER", Value: fr.Filter})
	}
	cards = append(cards, fitsio.Card{Name: "FRAME", Value: fr.Role.HeaderValue(), Comment: "frame role"})

	written := map[string]bool{}
	for _, c := range cards {
		written[c.Name] = true
	}
	for k := range structuralKeys {
		written[k] = true
	}

	keys := []string{}
	for k := range fr.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := k
		if len(name) > maxKeyLen {
			name = name[:maxKeyLen]
		}
		if written[name] {
			continue
		}
		written[name] = true
		cards = append(cards, fitsio.Card{Name: name, Value: fr.Extra[k]})
	}

	return cards
}
