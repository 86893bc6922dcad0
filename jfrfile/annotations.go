package jfrfile

// Well-known annotation class names JFR producers attach to classes,
// fields, and settings to carry interpretation hints beyond the raw
// wire type (§4.9). Annotations not in this list are left as their raw
// (key, value) pairs on AnnotationElement; forward compatibility needs
// no code changes here.
const (
	AnnotationLabel             = "jdk.jfr.Label"
	AnnotationDescription       = "jdk.jfr.Description"
	AnnotationCategory          = "jdk.jfr.Category"
	AnnotationTimestamp         = "jdk.jfr.Timestamp"
	AnnotationTimespan          = "jdk.jfr.Timespan"
	AnnotationUnsigned          = "jdk.jfr.Unsigned"
	AnnotationPercentage        = "jdk.jfr.Percentage"
	AnnotationMemoryAddress     = "jdk.jfr.MemoryAddress"
	AnnotationDataAmount        = "jdk.jfr.DataAmount"
	AnnotationFrequency         = "jdk.jfr.Frequency"
	AnnotationExperimental      = "jdk.jfr.Experimental"
	AnnotationRelational        = "jdk.jfr.Relational"
	AnnotationBooleanFlag       = "jdk.jfr.BooleanFlag"
	AnnotationEnabled           = "jdk.jfr.Enabled"
	AnnotationMetadataDefinition = "jdk.jfr.MetadataDefinition"
	AnnotationName              = "jdk.jfr.Name"
	AnnotationPeriod            = "jdk.jfr.Period"
	AnnotationRegistered        = "jdk.jfr.Registered"
	AnnotationSettingDefinition = "jdk.jfr.SettingDefinition"
	AnnotationStackTrace        = "jdk.jfr.StackTrace"
	AnnotationThreshold         = "jdk.jfr.Threshold"
	AnnotationTransitionFrom    = "jdk.jfr.TransitionFrom"
	AnnotationTransitionTo      = "jdk.jfr.TransitionTo"
	AnnotationInternalCutoff    = "jdk.jfr.internal.Cutoff"
	AnnotationInternalMirror    = "jdk.jfr.internal.Mirror"
	AnnotationInternalThrottle  = "jdk.jfr.internal.Throttle"
)

// annotationByTypeName finds the first annotation among anns whose
// resolved type id names match typeName (by the class name of the
// class that id refers to). Most callers of the As* helpers below want
// "does this field/class carry annotation X", not the type id itself,
// so this resolves by name via md.
func annotationByTypeName(anns []AnnotationElement, md *Metadata, typeName string) (AnnotationElement, bool) {
	for _, a := range anns {
		cls, ok := md.ClassByID(a.TypeID)
		if ok && cls.Name == typeName {
			return a, true
		}
	}
	return AnnotationElement{}, false
}

// Label returns the class's jdk.jfr.Label value, if annotated.
func (c *ClassElement) Label(md *Metadata) (string, bool) {
	return annotationStringValue(c.Annotations, md, AnnotationLabel)
}

// Description returns the class's jdk.jfr.Description value, if
// annotated.
func (c *ClassElement) Description(md *Metadata) (string, bool) {
	return annotationStringValue(c.Annotations, md, AnnotationDescription)
}

// Category returns the class's jdk.jfr.Category path segments, if
// annotated. The annotation may repeat the "value" key for each path
// segment (a multi-level category like {"Java Application", "Locks"});
// all matching values are returned in declaration order.
func (c *ClassElement) Category(md *Metadata) ([]string, bool) {
	a, ok := annotationByTypeName(c.Annotations, md, AnnotationCategory)
	if !ok {
		return nil, false
	}
	var out []string
	for _, kv := range a.Values {
		if kv[0] == "value" {
			out = append(out, kv[1])
		}
	}
	return out, len(out) > 0
}

// IsTimestamp reports whether f is annotated jdk.jfr.Timestamp, and if
// so, which representation ("TICKS" or "MILLISECONDS_SINCE_EPOCH", per
// the annotation's "value" attribute; "" means the field is simply a
// tick count relative to the recording, the default when unannotated
// is absent).
func (f *FieldElement) IsTimestamp(md *Metadata) (repr string, ok bool) {
	a, ok := annotationByTypeName(f.Annotations, md, AnnotationTimestamp)
	if !ok {
		return "", false
	}
	return annotationValue(a, "value"), true
}

// IsTimespan reports whether f is annotated jdk.jfr.Timespan, and if
// so, which unit ("TICKS" or "NANOSECONDS").
func (f *FieldElement) IsTimespan(md *Metadata) (unit string, ok bool) {
	a, ok := annotationByTypeName(f.Annotations, md, AnnotationTimespan)
	if !ok {
		return "", false
	}
	return annotationValue(a, "value"), true
}

// IsUnsigned reports whether f's integer value should be interpreted as
// unsigned, per jdk.jfr.Unsigned.
func (f *FieldElement) IsUnsigned(md *Metadata) bool {
	_, ok := annotationByTypeName(f.Annotations, md, AnnotationUnsigned)
	return ok
}

// IsBooleanFlag reports whether f is a simple on/off setting control,
// per jdk.jfr.BooleanFlag.
func (f *FieldElement) IsBooleanFlag(md *Metadata) bool {
	_, ok := annotationByTypeName(f.Annotations, md, AnnotationBooleanFlag)
	return ok
}

// EnabledByDefault reports c's jdk.jfr.Enabled default, if annotated.
func (c *ClassElement) EnabledByDefault(md *Metadata) (bool, bool) {
	a, ok := annotationByTypeName(c.Annotations, md, AnnotationEnabled)
	if !ok {
		return false, false
	}
	v, err := ParseBoolSetting(annotationValue(a, "value"))
	return v, err == nil
}

// IsMetadataDefinition reports whether c is itself a metadata element
// type (jdk.jfr.MetadataDefinition), rather than an ordinary event/value
// class.
func (c *ClassElement) IsMetadataDefinition(md *Metadata) bool {
	_, ok := annotationByTypeName(c.Annotations, md, AnnotationMetadataDefinition)
	return ok
}

// OverrideName returns c's jdk.jfr.Name override, if annotated (producers use
// this to give a class a different event name than its Java type name).
func (c *ClassElement) OverrideName(md *Metadata) (string, bool) {
	return annotationStringValue(c.Annotations, md, AnnotationName)
}

// DefaultPeriod returns c's jdk.jfr.Period default value string, if
// annotated (one of the period setting grammar's forms — see
// ParsePeriodSetting).
func (c *ClassElement) DefaultPeriod(md *Metadata) (string, bool) {
	return annotationStringValue(c.Annotations, md, AnnotationPeriod)
}

// RegisteredByDefault reports c's jdk.jfr.Registered default, if
// annotated.
func (c *ClassElement) RegisteredByDefault(md *Metadata) (bool, bool) {
	a, ok := annotationByTypeName(c.Annotations, md, AnnotationRegistered)
	if !ok {
		return false, false
	}
	v, err := ParseBoolSetting(annotationValue(a, "value"))
	return v, err == nil
}

// IsSettingDefinition reports whether c describes a custom setting
// value type (jdk.jfr.SettingDefinition), rather than an ordinary event
// field type.
func (c *ClassElement) IsSettingDefinition(md *Metadata) bool {
	_, ok := annotationByTypeName(c.Annotations, md, AnnotationSettingDefinition)
	return ok
}

// HasStackTrace reports whether c is annotated jdk.jfr.StackTrace,
// meaning events of this type carry a captured stack trace field.
func (c *ClassElement) HasStackTrace(md *Metadata) bool {
	_, ok := annotationByTypeName(c.Annotations, md, AnnotationStackTrace)
	return ok
}

// DefaultThreshold returns c's jdk.jfr.Threshold default value string,
// if annotated (a duration-setting grammar string — see
// ParseDurationSetting).
func (c *ClassElement) DefaultThreshold(md *Metadata) (string, bool) {
	return annotationStringValue(c.Annotations, md, AnnotationThreshold)
}

// TransitionFrom and TransitionTo report the jdk.jfr.TransitionFrom/
// jdk.jfr.TransitionTo annotations some state-change event fields carry
// (e.g. an old/new thread state), returning the annotation's "value"
// attribute.
func (f *FieldElement) TransitionFrom(md *Metadata) (string, bool) {
	a, ok := annotationByTypeName(f.Annotations, md, AnnotationTransitionFrom)
	if !ok {
		return "", false
	}
	return annotationValue(a, "value"), true
}

func (f *FieldElement) TransitionTo(md *Metadata) (string, bool) {
	a, ok := annotationByTypeName(f.Annotations, md, AnnotationTransitionTo)
	if !ok {
		return "", false
	}
	return annotationValue(a, "value"), true
}

// InternalCutoff returns c's jdk.jfr.internal.Cutoff default value
// string, if annotated (a duration-setting grammar string).
func (c *ClassElement) InternalCutoff(md *Metadata) (string, bool) {
	return annotationStringValue(c.Annotations, md, AnnotationInternalCutoff)
}

// InternalMirror returns the class name c mirrors, if annotated
// jdk.jfr.internal.Mirror (used by the JDK's own event classes to
// describe a VM-internal type they stand in for).
func (c *ClassElement) InternalMirror(md *Metadata) (string, bool) {
	return annotationStringValue(c.Annotations, md, AnnotationInternalMirror)
}

// InternalThrottle returns c's jdk.jfr.internal.Throttle default value
// string, if annotated (a throttle-setting grammar string — see
// ParseThrottleSetting).
func (c *ClassElement) InternalThrottle(md *Metadata) (string, bool) {
	return annotationStringValue(c.Annotations, md, AnnotationInternalThrottle)
}

func annotationStringValue(anns []AnnotationElement, md *Metadata, typeName string) (string, bool) {
	a, ok := annotationByTypeName(anns, md, typeName)
	if !ok {
		return "", false
	}
	return annotationValue(a, "value"), true
}

func annotationValue(a AnnotationElement, key string) string {
	for _, kv := range a.Values {
		if kv[0] == key {
			return kv[1]
		}
	}
	return ""
}
