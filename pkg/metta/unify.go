package metta

// Unify matches pattern against subject, threading an incoming binding
// frame:
//
//   - a fresh "$"-variable binds to the subject; an already-bound variable
//     requires structural equality with the subject;
//   - a "_"/"$_" wildcard matches anything and binds nothing;
//   - any other atom matches only the identical atom;
//   - literals match only the identical literal (Nil and empty SExpr are
//     treated equal);
//   - SExpr(xs) matches SExpr(ys) iff the lengths agree and every
//     positional sub-pattern matches left-to-right, threading bindings;
//   - binding a variable to a term containing that same variable fails
//     (occurs-check), preventing infinite structures.
//
// This generalizes a Substitution.Bind/Walk pair (pkg/minikanren/core.go's
// shape) from matching two logic-variable terms for strict equality to
// matching a pattern against ground-or-partially-bound subject data, and
// is exercised identically by Space.Match and by every special form that
// needs a single-shot match (if/case/let).
func Unify(pattern, subject Value, frame *Frame) (*Frame, bool) {
	pattern = frame.Walk(pattern)
	subject = frame.Walk(subject)

	if pattern.IsWildcard() {
		return frame, true
	}
	if subject.IsWildcard() {
		return frame, true
	}

	if pattern.IsVar() {
		if subject.IsVar() && subject.Symbol() == pattern.Symbol() {
			return frame, true
		}
		if occursIn(pattern.Symbol(), subject, frame) {
			return nil, false
		}
		return frame.Push(pattern.Symbol(), subject), true
	}
	if subject.IsVar() {
		if occursIn(subject.Symbol(), pattern, frame) {
			return nil, false
		}
		return frame.Push(subject.Symbol(), pattern), true
	}

	if pattern.Kind() != subject.Kind() {
		if isEmptyOrNil(pattern) && isEmptyOrNil(subject) {
			return frame, true
		}
		return nil, false
	}

	switch pattern.Kind() {
	case KindAtom:
		if pattern.Symbol() == subject.Symbol() {
			return frame, true
		}
		return nil, false
	case KindLong:
		if pattern.Long() == subject.Long() {
			return frame, true
		}
		return nil, false
	case KindFloat:
		if pattern.Float() == subject.Float() {
			return frame, true
		}
		return nil, false
	case KindBool:
		if pattern.Bool() == subject.Bool() {
			return frame, true
		}
		return nil, false
	case KindString:
		if pattern.Str() == subject.Str() {
			return frame, true
		}
		return nil, false
	case KindNil, KindUnit:
		return frame, true
	case KindSExpr:
		px, sx := pattern.Items(), subject.Items()
		if len(px) != len(sx) {
			return nil, false
		}
		cur := frame
		var ok bool
		for i := range px {
			cur, ok = Unify(px[i], sx[i], cur)
			if !ok {
				return nil, false
			}
		}
		return cur, true
	case KindSpaceRef:
		if pattern.SpaceID() == subject.SpaceID() {
			return frame, true
		}
		return nil, false
	case KindStateRef:
		if pattern.StateID() == subject.StateID() {
			return frame, true
		}
		return nil, false
	case KindError:
		cur, ok := Unify(pattern.ErrorValue(), subject.ErrorValue(), frame)
		if !ok || pattern.ErrorMessage() != subject.ErrorMessage() {
			return nil, false
		}
		return cur, true
	default:
		return nil, false
	}
}

// occursIn implements the occurs-check: binding varName to term fails if
// term (after resolving existing bindings) contains a variable occurrence
// of varName anywhere within its structure.
func occursIn(varName string, term Value, frame *Frame) bool {
	term = frame.Walk(term)
	if term.IsVar() && term.Symbol() == varName {
		return true
	}
	if term.IsSExpr() {
		for _, it := range term.Items() {
			if occursIn(varName, it, frame) {
				return true
			}
		}
	}
	return false
}

// Match is the symmetric entry point used when both sides should be
// treated as patterns. It is identical to Unify — Unify already treats
// both sides symmetrically — and exists as a distinctly named entry
// point for the `unify` grounded operation's call site.
func Match(a, b Value, frame *Frame) (*Frame, bool) {
	return Unify(a, b, frame)
}
