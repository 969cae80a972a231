package post

// Questions normalizes the three post shapes into the flat list of questions
// relevant to classification. Absent conditional branches are filtered rather
// than treated as errors; an unknown shape yields an empty list.
func (p *Post) Questions() []Question {
	switch p.Shape() {
	case ShapeQuestion:
		return []Question{*p.Question}
	case ShapeGroup:
		return p.Group.Questions
	case ShapeConditional:
		qs := make([]Question, 0, 2)
		if p.Conditional.QuestionYes != nil {
			qs = append(qs, *p.Conditional.QuestionYes)
		}
		if p.Conditional.QuestionNo != nil {
			qs = append(qs, *p.Conditional.QuestionNo)
		}
		return qs
	default:
		return nil
	}
}
