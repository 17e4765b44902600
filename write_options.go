package treecorr

// refSlot names a reference correlation accepted by the Write family.
type refSlot int

const (
	refRR refSlot = iota // random-random pairs
	refDR                // data-random pairs
	refRD                // random-data pairs
	refNR                // count-random pairs
	refRG                // random-shear
	refRK                // random-scalar
)

var refSlots = [...]struct {
	name string
	kind Kind
}{
	refRR: {"rr", NN},
	refDR: {"dr", NN},
	refRD: {"rd", NN},
	refNR: {"nr", NN},
	refRG: {"rg", NG},
	refRK: {"rk", NK},
}

func (s refSlot) name() string { return refSlots[s].name }
func (s refSlot) kind() Kind   { return refSlots[s].kind }

// allowedRefs lists the references Write accepts per kind.
var allowedRefs = map[Kind][]refSlot{
	NN: {refRR, refDR, refRD},
	NG: {refRG},
	NK: {refRK},
}

type writeRefs struct {
	set   map[refSlot]Binned
	order []refSlot
}

func (w *writeRefs) put(slot refSlot, ref Binned) {
	if w.set == nil {
		w.set = make(map[refSlot]Binned)
	}
	if _, ok := w.set[slot]; !ok {
		w.order = append(w.order, slot)
	}
	w.set[slot] = ref
}

func (w writeRefs) attrs() []any {
	if len(w.order) == 0 {
		return nil
	}
	names := make([]string, len(w.order))
	for i, slot := range w.order {
		names[i] = slot.name()
	}
	return []any{"refs", names}
}

// WriteOption supplies a reference correlation to Write, WriteNMap or
// WriteNorm.
type WriteOption func(*writeRefs)

// WithRR supplies the random-random NN correlation.
func WithRR(rr Binned) WriteOption {
	return func(w *writeRefs) { w.put(refRR, rr) }
}

// WithDR supplies the data-random NN correlation.
func WithDR(dr Binned) WriteOption {
	return func(w *writeRefs) { w.put(refDR, dr) }
}

// WithRD supplies the random-data NN correlation.
func WithRD(rd Binned) WriteOption {
	return func(w *writeRefs) { w.put(refRD, rd) }
}

// WithNR supplies the count-random NN correlation used by WriteNorm.
func WithNR(nr Binned) WriteOption {
	return func(w *writeRefs) { w.put(refNR, nr) }
}

// WithRG supplies the random-shear NG correlation.
func WithRG(rg Binned) WriteOption {
	return func(w *writeRefs) { w.put(refRG, rg) }
}

// WithRK supplies the random-scalar NK correlation.
func WithRK(rk Binned) WriteOption {
	return func(w *writeRefs) { w.put(refRK, rk) }
}
