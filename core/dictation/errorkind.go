package dictation

// ErrorKind classifies a wrong answer into one orthographic error category.
// The taxonomy is specific to Portuguese orthography; the human-readable
// descriptions are therefore kept in Portuguese, the language of the app.
type ErrorKind string

const (
	KindNone     ErrorKind = "none"
	KindSpelling ErrorKind = "spelling"
	KindAccent   ErrorKind = "accent"
	KindOmission ErrorKind = "omission"

	// first-letter error shapes
	KindStartDeletion     ErrorKind = "start_deletion"
	KindStartInsertion    ErrorKind = "start_insertion"
	KindStartSubstitution ErrorKind = "start_substitution"
	KindStartIrregularH   ErrorKind = "start_irregular_h"
	KindStartContextualSC ErrorKind = "start_contextual_sc"

	// last-letter error shapes
	KindEndDeletion     ErrorKind = "end_deletion"
	KindEndInsertion    ErrorKind = "end_insertion"
	KindEndSubstitution ErrorKind = "end_substitution"
	KindEndInversion    ErrorKind = "end_inversion"
	KindEndSpuriousH    ErrorKind = "end_spurious_h"
	KindEndConfusionSZ  ErrorKind = "end_confusion_s_z"
	KindEndConfusionSSS ErrorKind = "end_confusion_s_ss"
	KindEndConfusionSC  ErrorKind = "end_confusion_s_c"
	KindEndConfusionSX  ErrorKind = "end_confusion_s_x"
)

// Kinds lists every classifiable error kind, excluding KindNone.
var Kinds = []ErrorKind{
	KindSpelling,
	KindAccent,
	KindOmission,
	KindStartDeletion,
	KindStartInsertion,
	KindStartSubstitution,
	KindStartIrregularH,
	KindStartContextualSC,
	KindEndDeletion,
	KindEndInsertion,
	KindEndSubstitution,
	KindEndInversion,
	KindEndSpuriousH,
	KindEndConfusionSZ,
	KindEndConfusionSSS,
	KindEndConfusionSC,
	KindEndConfusionSX,
}

var kindDescriptions = map[ErrorKind]string{
	KindNone:     "Nenhum erro",
	KindSpelling: "Erro ortográfico",
	KindAccent:   "Erro de acentuação",
	KindOmission: "Omissão de letra(s)",

	KindStartDeletion:     "Supressão da PRIMEIRA letra",
	KindStartInsertion:    "Acréscimo de letra INICIAL",
	KindStartSubstitution: "Troca da PRIMEIRA letra",
	KindStartIrregularH:   "Irregularidade (H INICIAL)",
	KindStartContextualSC: "Erro contextual (S/C INICIAL antes de E/I)",

	KindEndDeletion:     "Supressão da ÚLTIMA letra",
	KindEndInsertion:    "Acréscimo de letra FINAL",
	KindEndSubstitution: "Troca da ÚLTIMA letra",
	KindEndInversion:    "Inversão das duas ÚLTIMAS letras",
	KindEndSpuriousH:    "Uso indevido de H FINAL",
	KindEndConfusionSZ:  "Confusão entre S e Z FINAL",
	KindEndConfusionSSS: "Confusão entre S e SS FINAL",
	KindEndConfusionSC:  "Confusão entre S e Ç FINAL",
	KindEndConfusionSX:  "Confusão entre S e X FINAL",
}

var kindShortDescriptions = map[ErrorKind]string{
	KindNone:     "OK",
	KindSpelling: "Ortografia",
	KindAccent:   "Acentuação",
	KindOmission: "Omissão",

	KindStartDeletion:     "Supressão (início)",
	KindStartInsertion:    "Acréscimo (início)",
	KindStartSubstitution: "Troca (início)",
	KindStartIrregularH:   "H inicial",
	KindStartContextualSC: "S/C inicial",

	KindEndDeletion:     "Supressão (fim)",
	KindEndInsertion:    "Acréscimo (fim)",
	KindEndSubstitution: "Troca (fim)",
	KindEndInversion:    "Inversão (fim)",
	KindEndSpuriousH:    "H final indevido",
	KindEndConfusionSZ:  "S/Z",
	KindEndConfusionSSS: "S/SS",
	KindEndConfusionSC:  "S/Ç",
	KindEndConfusionSX:  "S/X",
}

// Describe returns the long human-readable description of an error kind.
func (k ErrorKind) Describe() string {
	if desc, ok := kindDescriptions[k]; ok {
		return desc
	}
	return "Erro desconhecido"
}

// DescribeShort returns the short label of an error kind.
func (k ErrorKind) DescribeShort() string {
	if desc, ok := kindShortDescriptions[k]; ok {
		return desc
	}
	return "Desconhecido"
}

func (k ErrorKind) String() string { return string(k) }
