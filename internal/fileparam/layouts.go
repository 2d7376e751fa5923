package fileparam

func init() {
	// Version 1: the original field set, no collation support.
	RegisterLayout(1, []int32{
		KeyMounted, KeyArea, KeyTemporary, KeyReadOnly, KeyPageSize,
		KeyFieldNumber, KeyFieldType, KeyFieldLength, KeyFieldFraction,
		KeyFieldEncodingForm, KeyFieldFixed,
		KeyElementType, KeyElementLength, KeyElementFixed,
		KeyKeyFieldNumber, KeyUnique, KeyVersion,
		KeySchemaDatabaseID, KeySchemaTableID, KeySchemaFileObjectID,
	})
	// Version 2: adds FieldCollation[i]. Everything v1 declared still
	// applies; v1 records loaded under v2 simply have no collation keys.
	RegisterLayout(2, []int32{
		KeyMounted, KeyArea, KeyTemporary, KeyReadOnly, KeyPageSize,
		KeyFieldNumber, KeyFieldType, KeyFieldLength, KeyFieldFraction,
		KeyFieldEncodingForm, KeyFieldFixed, KeyFieldCollation,
		KeyElementType, KeyElementLength, KeyElementFixed,
		KeyKeyFieldNumber, KeyUnique, KeyVersion,
		KeySchemaDatabaseID, KeySchemaTableID, KeySchemaFileObjectID,
	})
}

// CurrentVersion is the layout version new FileID/OpenOption records are
// created with.
const CurrentVersion int32 = 2
