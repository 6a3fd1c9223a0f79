package student

// Patch holds only the fields whose candidate value differs from the stored
// one. It is applied through a single fixed statement, so nil means "keep".
type Patch struct {
	IDNo          *string
	Name          *string
	StudentNumber *string
	Institute     *string
	RFIDTag       *string
	Status        *Status
}

// Diff compares cand against current field by field.
func Diff(current Student, cand Candidate) Patch {
	var p Patch
	p.IDNo = changed(current.IDNo, cand.IDNo)
	p.Name = changed(current.Name, cand.Name)
	p.StudentNumber = changed(current.StudentNumber, cand.StudentNumber)
	p.Institute = changed(current.Institute, cand.Institute)
	p.RFIDTag = changed(current.RFIDTag, cand.RFIDTag)
	if cand.Status != nil && *cand.Status != current.Status {
		st := *cand.Status
		p.Status = &st
	}
	return p
}

func changed(stored string, cand *string) *string {
	if cand == nil || *cand == stored {
		return nil
	}
	v := *cand
	return &v
}

// Empty reports whether nothing would change.
func (p Patch) Empty() bool {
	return len(p.Fields()) == 0
}

// Fields lists the changed fields by their wire names, in a fixed order.
func (p Patch) Fields() []string {
	var out []string
	if p.IDNo != nil {
		out = append(out, "idNo")
	}
	if p.Name != nil {
		out = append(out, "name")
	}
	if p.StudentNumber != nil {
		out = append(out, "studentNumber")
	}
	if p.Institute != nil {
		out = append(out, "institute")
	}
	if p.RFIDTag != nil {
		out = append(out, "rfidTag")
	}
	if p.Status != nil {
		out = append(out, "status")
	}
	return out
}

// Apply merges the patch over s.
func (p Patch) Apply(s Student) Student {
	if p.IDNo != nil {
		s.IDNo = *p.IDNo
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.StudentNumber != nil {
		s.StudentNumber = *p.StudentNumber
	}
	if p.Institute != nil {
		s.Institute = *p.Institute
	}
	if p.RFIDTag != nil {
		s.RFIDTag = *p.RFIDTag
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	return s
}

func (p Patch) statusArg() *string {
	if p.Status == nil {
		return nil
	}
	s := string(*p.Status)
	return &s
}
