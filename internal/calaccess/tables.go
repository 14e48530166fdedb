package calaccess

import (
	"fmt"

	"github.com/koustreak/calcat/internal/catalog"
)

// Tables returns the declarations of the lookup, filer and miscellaneous
// CAL-ACCESS tables in registration order.
func Tables() []catalog.TableSchema {
	return []catalog.TableSchema{
		acronyms(),
		address(),
		ballotMeasures(),
		efsFilingLog(),
		filers(),
		filerAcronyms(),
		filerAddress(),
		filerEthicsClass(),
		filerInterests(),
		filerLinks(),
		filerStatusTypes(),
		filerToFilerType(),
		filerTypes(),
		filerXref(),
		filingPeriod(),
		groupTypes(),
		imageLinks(),
		legislativeSessions(),
		lookupCodes(),
		names(),
		receivedFilings(),
		reports(),
		filerTypePeriods(),
	}
}

// Register adds every declaration to c.
func Register(c *catalog.Catalog) error {
	for _, t := range Tables() {
		if err := c.Register(t); err != nil {
			return fmt.Errorf("calaccess: %w", err)
		}
	}
	return nil
}

// NewCatalog builds and seals a catalog holding every declaration.
func NewCatalog(opts ...catalog.Option) (*catalog.Catalog, error) {
	c := catalog.New(opts...)
	if err := Register(c); err != nil {
		return nil, err
	}
	c.Seal()
	return c, nil
}

func acronyms() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "ACRONYMS_CD",
		Documentation: "Contains acronyms and their meaning.",
		UniqueKey:     catalog.SingleKey("ACRONYM"),
		Provenance:    []catalog.Provenance{page(7), page(16)},
		Fields: []catalog.FieldSpec{
			text("acronym", 40, "Acronym text value"),
			text("stands_for", 4, "Definition of the acronym"),
			date("effect_dt", "Effective date for the acronym", null),
			text("a_desc", 50, "Description of the acronym"),
		},
		DefaultOrdering: []catalog.OrderBy{asc("acronym")},
	}
}

func address() catalog.TableSchema {
	return catalog.TableSchema{
		Name: "ADDRESS_CD",
		Documentation: "This table holds all addresses for the system. This table can be used " +
			"for address-based searches and forms the bases for address information " +
			"displayed by the AMS.",
		UniqueKey:  catalog.SingleKey("ADRID"),
		Provenance: []catalog.Provenance{page(16)},
		Fields: []catalog.FieldSpec{
			integer("adrid", "Address identification number", verbose("Address ID")),
			text("city", 500, "Address city"),
			text("st", 500, "Address state", verbose("State")),
			text("zip4", 10, "Address ZIP Code", null),
			text("phon", 20, "Address phone number", null, verbose("Phone")),
			text("fax", 20, "Address fax number", null),
			text("email", 500, "Address email"),
		},
	}
}

func ballotMeasures() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "BALLOT_MEASURES_CD",
		Documentation: "Ballot measure dates and times",
		UniqueKey:     catalog.SingleKey("FILER_ID"),
		Fields: []catalog.FieldSpec{
			datetime("election_date", "Ballot measure election date", null),
			filerID(),
			text("measure_no", 2, "Ballot measure number"),
			text("measure_name", 163, "Ballot measure full name"),
			text("measure_short_name", 50, "Ballot measure short name", blank),
			text("jurisdiction", 9, undocumented),
		},
		DefaultOrdering: []catalog.OrderBy{
			desc("election_date"),
			asc("measure_no"),
			asc("measure_short_name"),
			asc("measure_name"),
		},
	}
}

var formTypeChoices = textChoices(
	"BADFORMAT 253", "",
	"F400", "",
	"F401", "",
	"F402", "",
	"F410", "",
	"F425", "",
	"F450", "",
	"F460", "",
	"F461", "",
	"F465", "",
	"F496", "",
	"F497", "",
	"F498", "",
	"F601", "",
	"F602", "",
	"F603", "",
	"F604", "",
	"F606", "",
	"F607", "",
	"F615", "",
	"F625", "",
	"F635", "",
	"F645", "",
	"form", "",
)

func efsFilingLog() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "EFS_FILING_LOG_CD",
		Documentation: "This is an undocumented model.",
		UniqueKey:     catalog.CompositeKey("FILING_DATE", "VENDOR"),
		Fields: []catalog.FieldSpec{
			datetime("filing_date", undocumented, null),
			integer("filingstatus", undocumented),
			text("vendor", 250, undocumented),
			text("filer_id", 250, "Filer's unique identification number", verbose("filer ID"), blank, indexed),
			text("form_type", 250, "Name of the source filing form or schedule", indexed, choices(formTypeChoices)),
			text("error_no", 250, undocumented),
		},
	}
}

func filers() catalog.TableSchema {
	return catalog.TableSchema{
		Name: "FILERS_CD",
		Documentation: "This table is the parent table from which all links and associations " +
			"to a filer are derived.",
		UniqueKey: catalog.SingleKey("FILER_ID"),
		Fields:    []catalog.FieldSpec{filerID()},
	}
}

func filerAcronyms() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "FILER_ACRONYMS_CD",
		Documentation: "Links acronyms to filers",
		UniqueKey:     catalog.CompositeKey("ACRONYM", "FILER_ID"),
		Fields: []catalog.FieldSpec{
			text("acronym", 32, "AMS acronym"),
			filerID(),
		},
	}
}

func filerAddress() catalog.TableSchema {
	return catalog.TableSchema{
		Name: "FILER_ADDRESS_CD",
		Documentation: "Links filers and addresses. This table maintains a history of when " +
			"addresses change.",
		UniqueKey: catalog.CompositeKey("FILER_ID", "ADRID"),
		Fields: []catalog.FieldSpec{
			filerID(),
			integer("adrid", "Address identification number", verbose("Address ID")),
			datetime("effect_dt", "Address effective date", verbose("Effective date"), blank, null),
			integer("add_type", "", verbose("Address type"), blank, null),
			sessionID(),
		},
	}
}

func filerEthicsClass() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "FILER_ETHICS_CLASS_CD",
		Documentation: "This table stores lobbyist ethics training dates.",
		UniqueKey:     catalog.CompositeKey("FILER_ID", "SESSION_ID", "ETHICS_DATE"),
		Fields: []catalog.FieldSpec{
			filerID(),
			sessionID(),
			datetime("ethics_date", "Date ethics training was accomplished", null),
		},
	}
}

func filerInterests() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "FILER_INTERESTS_CD",
		Documentation: "Links a filer to their interest codes.",
		UniqueKey:     catalog.CompositeKey("FILER_ID", "INTEREST_CD", "EFFECT_DATE", "SESSION_ID"),
		Fields: []catalog.FieldSpec{
			filerID(),
			sessionID(),
			integer("interest_cd", "", verbose("interest code"), blank, null),
			datetime("effect_date", "", verbose("Effective date"), null),
		},
	}
}

var linkTypeChoices = intChoices(
	-12019, "-12019",
	-12018, "-12018",
	-12016, "-12016",
	-12015, "-12015",
	-12014, "-12014",
	-12013, "-12013",
	-12011, "-12011",
	-12008, "-12008",
	-12005, "-12005",
	-12004, "-12004",
	-12002, "-12002",
	-12001, "-12001",
	0, "0",
	12001, "12001",
	12002, "12002",
	12004, "12004",
	12005, "12005",
	12008, "12008",
	12011, "12011",
	12013, "12013",
	12014, "12014",
	12015, "12015",
	12016, "12016",
	12018, "12018",
	12019, "12019",
)

func filerLinks() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "FILER_LINKS_CD",
		Documentation: "Links filers to each other and records their relationship type.",
		UniqueKey:     catalog.CompositeKey("FILER_ID_A", "FILER_ID_B", "ACTIVE_FLG", "SESSION_ID", "LINK_TYPE"),
		Fields: []catalog.FieldSpec{
			integer("filer_id_a", "Unique identification number for the first filer in the relationship",
				verbose("Filer ID A"), indexed),
			integer("filer_id_b", "Unique identification number for the second filer in the relationship",
				verbose("Filer ID B"), indexed),
			text("active_flg", 1, "Indicates if the link is active", verbose("active flag")),
			sessionID(),
			integer("link_type", "Denotes the type of the link", choices(linkTypeChoices)),
			text("link_desc", 255, "Unused", verbose("link description"), blank),
			date("effect_dt", "Date the link became active", verbose("effective date"), null),
			text("dominate_filer", 1, "Unused", blank),
			date("termination_dt", "Termination effective date", verbose("termination date"), null, blank),
		},
	}
}

var statusTypeChoices = textChoices(
	"A", "ACTIVE",
	"N", "INACTIVE",
	"P", "PENDING",
	"R", "REVOKED",
	"S", "SUSPENDED",
	"T", "TERMINATED",
	"W", "WITHDRAWN",
	"Y", "ACTIVE",
)

func filerStatusTypes() catalog.TableSchema {
	return catalog.TableSchema{
		Name: "FILER_STATUS_TYPES_CD",
		Documentation: "This is an undocumented model that contains a small number " +
			"of codes and definitions.",
		UniqueKey: catalog.SingleKey("STATUS_TYPE"),
		Fields: []catalog.FieldSpec{
			text("status_type", 11, undocumented, choices(statusTypeChoices)),
			text("status_desc", 11, undocumented, verbose("status description")),
		},
		DefaultOrdering: []catalog.OrderBy{asc("status_type")},
	}
}

// The last four party codes occur in the database but are missing from
// the official lookup table.
var partyCodeChoices = intChoices(
	16001, "DEMOCRATIC",
	16002, "REPUBLICAN",
	16003, "GREEN PARTY",
	16004, "REFORM PARTY",
	16005, "AMERICAN INDEPENDENT PARTY",
	16006, "PEACE AND FREEDOM",
	16007, "INDEPENDENT",
	16008, "LIBERTARIAN",
	16009, "NON PARTISAN",
	16010, "NATURAL LAW",
	16011, "UNKNOWN",
	16012, "NO PARTY PREFERENCE",
	16013, "AMERICANS ELECT",
	16020, "UNKNOWN",
	16014, "UNKNOWN",
	0, "UNKNOWN",
	nil, "NONE",
)

func filerToFilerType() catalog.TableSchema {
	return catalog.TableSchema{
		Name: "FILER_TO_FILER_TYPE_CD",
		Documentation: "This table links a filer to a set of characteristics that describe the " +
			"filer. This table maintains a history of changes and allows the filer " +
			"to change characteristics over time.",
		UniqueKey:  catalog.CompositeKey("FILER_ID", "FILER_TYPE", "SESSION_ID", "EFFECT_DT"),
		Provenance: []catalog.Provenance{pages(68, 69)},
		Fields: []catalog.FieldSpec{
			filerID(),
			integer("filer_type", "Filer type identification number"),
			text("active", 1, "Indicates if the filer is currently active"),
			integer("race", "If applicable indicates the race in which the filer is running", null, blank),
			sessionID(),
			integer("category", "Defines the filer's category such as controlled, jointly "+
				"controlled, etc. (subset of filer's type)", null, blank),
			integer("category_type", "When applicable, the category type specifies additional "+
				"information about the category. (e.g. state, local, etc.)", null, blank),
			integer("sub_category", "When applicable specifies general purpose, primarily formed, etc.", null, blank),
			date("effect_dt", "The date the filer assumed the current class or type", null),
			integer("sub_category_type", "When applicable specifies broad based or small contributor", null, blank),
			integer("election_type", "Indicates type of election (general, primary, special)", null, blank),
			text("sub_category_a", 1, "Indicates if sponsored or not", blank),
			date("nyq_dt", "Indicates the date when a committee reached its qualifying level of activity", null, blank),
			integer("party_cd", "Filer's political party", null, blank, choices(partyCodeChoices)),
			integer("county_cd", "Filer's county code", null, blank),
			integer("district_cd", "Filer's district number for the office being sought. "+
				"Populated for Senate, Assembly or Board of Equalization races", null, blank),
		},
	}
}

func filerTypes() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "FILER_TYPES_CD",
		Documentation: "This lookup table describes filer types.",
		UniqueKey:     catalog.SingleKey("FILER_TYPE"),
		Fields: []catalog.FieldSpec{
			integer("filer_type", "Filer type identification number"),
			text("description", 255, "Description of the filer type"),
			integer("grp_type", "Group type assocated with the filer type", null, blank),
			text("calc_use", 1, "Use checkbox flag", blank),
			text("grace_period", 12, undocumented, blank),
		},
		DefaultOrdering: []catalog.OrderBy{asc("filer_type")},
	}
}

func filerXref() catalog.TableSchema {
	return catalog.TableSchema{
		Name: "FILER_XREF_CD",
		Documentation: "This table maps legacy filer identification numbers to the system's filer " +
			"identification numbers.",
		UniqueKey: catalog.CompositeKey("FILER_ID", "XREF_ID"),
		Fields: []catalog.FieldSpec{
			filerID(),
			text("xref_id", 32, "Alternative filer ID found on many forms", verbose("crossreference filer ID"), indexed),
			date("effect_dt", "", verbose("Effective date"), null),
			text("migration_source", 50, "Source of the XREF_ID. Migration or generated by the AMS."),
		},
	}
}

func filingPeriod() catalog.TableSchema {
	return catalog.TableSchema{
		Name: "FILING_PERIOD_CD",
		Documentation: "An undocumented table that contains metadata for a variety " +
			"of filing periods.",
		UniqueKey: catalog.SingleKey("PERIOD_ID"),
		Fields: []catalog.FieldSpec{
			integer("period_id", "Unique period identification number"),
			date("start_date", "Starting date for period", null),
			date("end_date", "Ending date of period", null),
			integer("period_type", "", choices(intChoices(
				1500, "Standard period",
				1501, "Non-standard period",
			))),
			integer("per_grp_type", "Period group type"),
			text("period_desc", 255, "Period description"),
			date("deadline", "Deadline date", null),
		},
		DefaultOrdering: []catalog.OrderBy{desc("end_date")},
	}
}

func groupTypes() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "GROUP_TYPES_CD",
		Documentation: "This lookup table stores group type information.",
		UniqueKey:     catalog.SingleKey("GRP_ID"),
		Provenance:    []catalog.Provenance{pages(78, 79)},
		Fields: []catalog.FieldSpec{
			integer("grp_id", "Group identification number", verbose("Group ID")),
			text("grp_name", 28, "", verbose("Group name"), blank),
			text("grp_desc", 32, "", verbose("Group description"), blank),
		},
	}
}

func imageLinks() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "IMAGE_LINKS_CD",
		Documentation: "This table links images to filers and accounts.",
		UniqueKey:     catalog.CompositeKey("IMG_LINK_ID", "IMG_ID"),
		Fields: []catalog.FieldSpec{
			integer("img_link_id", "Image link identification number", verbose("Image link ID")),
			integer("img_link_type", "", verbose("Image link type")),
			integer("img_id", "Image identification number", verbose("Image ID")),
			integer("img_type", "", verbose("Image type")),
			date("img_dt", "", verbose("Image date"), null),
		},
	}
}

func legislativeSessions() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "LEGISLATIVE_SESSIONS_CD",
		Documentation: "Legislative session, begin and end dates look up table.",
		UniqueKey:     catalog.SingleKey("SESSION_ID"),
		Fields: []catalog.FieldSpec{
			sessionID(),
			date("begin_date", "Session start date", null),
			date("end_date", "Session end date", null),
		},
	}
}

func lookupCodes() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "LOOKUP_CODES_CD",
		Documentation: "The description of some lookup codes in the system.",
		UniqueKey:     catalog.CompositeKey("CODE_ID", "CODE_TYPE"),
		Fields: []catalog.FieldSpec{
			integer("code_type", undocumented),
			integer("code_id", "The code's identification number"),
			text("code_desc", 100, "Code description", null),
		},
	}
}

func names() catalog.TableSchema {
	return catalog.TableSchema{
		Name: "NAMES_CD",
		Documentation: "The name of all entities in the system. Used for searches when " +
			"the name has an identification number.",
		UniqueKey: catalog.NoKey(),
		Fields: []catalog.FieldSpec{
			integer("namid", "Identification number unique to the name"),
			text("naml", 200, "Last name"),
			text("namf", 50, "First name"),
			text("namt", 100, "Name title or prefix", blank),
			text("nams", 30, "Name suffix", blank),
			text("moniker", 30, "Entity's moniker", blank),
			text("moniker_pos", 9, "Location of the entity's moniker", blank),
			text("namm", 20, "Middle name", blank),
			text("fullname", 200, "Full name"),
			text("naml_search", 200, "Last name"),
		},
	}
}

func receivedFilings() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "RECEIVED_FILINGS_CD",
		Documentation: "This table is undocumented.",
		UniqueKey:     catalog.NoKey(),
		Fields: []catalog.FieldSpec{
			filerID(),
			text("filing_file_name", 14, undocumented),
			date("received_date", "Date received", null),
			text("filing_directory", 45, undocumented),
			integer("filing_id", "Unique filing identification number", verbose("filing ID"), indexed, null, blank),
			text("form_id", 4, "Form identification code", blank),
			text("receive_comment", 51, "A comment"),
		},
	}
}

func reports() catalog.TableSchema {
	return catalog.TableSchema{
		Name:          "REPORTS_CD",
		Documentation: "This is an undocumented model.",
		UniqueKey:     catalog.SingleKey("RPT_ID"),
		Fields: []catalog.FieldSpec{
			integer("rpt_id", "Unique identification number"),
			text("rpt_name", 74, "Name of the report"),
			text("rpt_desc_field", 32, "Description of the report", column("RPT_DESC_"), blank),
			text("path", 32, "Report path", blank),
			text("data_object", 38, undocumented),
			integer("parms_flg_y_n", "Parameters indication flag", blank, null),
			integer("rpt_type", "Type of the report"),
			integer("parm_definition", "Parameter definition"),
		},
	}
}

func filerTypePeriods() catalog.TableSchema {
	return catalog.TableSchema{
		Name: "FILER_TYPE_PERIODS",
		Documentation: "This table and its fields are listed in the official CAL-ACCESS documentation, " +
			"but is not fully explained. The table's description contains this note: \"J M needs " +
			"to document. This is in his list of tables designed for future enhancements.\"",
		UniqueKey:  catalog.CompositeKey("ELECTION_TYPE", "FILER_TYPE", "PERIOD_ID"),
		Provenance: []catalog.Provenance{page(8), page(71)},
		Fields: []catalog.FieldSpec{
			integer("election_type", "Election type", indexed),
			integer("filer_type", "Filer type identification number.", indexed),
			integer("period_id", "Period identification number.", indexed),
		},
	}
}
