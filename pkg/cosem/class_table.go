package cosem

// AttributeInfo describes one attribute of an interface class.
type AttributeInfo struct {
	// Name is the attribute name from the class definition.
	Name string

	// Type is the display type used when rendering the value.
	Type DataType

	// Access is the default access right when the association view does
	// not declare one.
	Access Access
}

// memberCount is the number of attributes and methods of one class version.
type memberCount struct {
	attributes int
	methods    int
}

// ClassInfo is one entry of the capability table.
type ClassInfo struct {
	// Type is the interface class id.
	Type ObjectType

	// Version is the newest class version the entry describes.
	Version uint8

	// Attributes lists attributes 1..n of the newest version.
	Attributes []AttributeInfo

	// Methods lists method names 1..n of the newest version.
	Methods []string

	// older records member counts of previous class versions that differ
	// from the newest one.
	older map[uint8]memberCount
}

// AttributeCount returns the number of attributes declared by the given
// class version.
func (c *ClassInfo) AttributeCount(version uint8) int {
	if mc, ok := c.older[version]; ok {
		return mc.attributes
	}
	return len(c.Attributes)
}

// MethodCount returns the number of methods declared by the given class
// version.
func (c *ClassInfo) MethodCount(version uint8) int {
	if mc, ok := c.older[version]; ok {
		return mc.methods
	}
	return len(c.Methods)
}

// Attribute returns the description of attribute index (1-based).
func (c *ClassInfo) Attribute(index int) (AttributeInfo, bool) {
	if index < 1 || index > len(c.Attributes) {
		return AttributeInfo{}, false
	}
	return c.Attributes[index-1], true
}

// MethodName returns the name of method index (1-based).
func (c *ClassInfo) MethodName(index int) string {
	if index < 1 || index > len(c.Methods) {
		return ""
	}
	return c.Methods[index-1]
}

// Lookup returns the capability table entry for an interface class.
func Lookup(t ObjectType) (*ClassInfo, bool) {
	c, ok := classTable[t]
	return c, ok
}

// KnownTypes returns every class id present in the capability table.
func KnownTypes() []ObjectType {
	types := make([]ObjectType, 0, len(classTable))
	for t := range classTable {
		types = append(types, t)
	}
	return types
}

func ro(name string) AttributeInfo { return AttributeInfo{Name: name, Access: AccessRead} }

func rw(name string) AttributeInfo { return AttributeInfo{Name: name, Access: AccessReadWrite} }

func typed(a AttributeInfo, t DataType) AttributeInfo {
	a.Type = t
	return a
}

func class(t ObjectType, version uint8, attrs []AttributeInfo, methods ...string) *ClassInfo {
	all := append([]AttributeInfo{typed(ro("logical_name"), DataTypeLogicalName)}, attrs...)
	return &ClassInfo{Type: t, Version: version, Attributes: all, Methods: methods}
}

func (c *ClassInfo) withOlder(version uint8, attributes, methods int) *ClassInfo {
	if c.older == nil {
		c.older = make(map[uint8]memberCount)
	}
	c.older[version] = memberCount{attributes: attributes, methods: methods}
	return c
}

var classTable = map[ObjectType]*ClassInfo{
	ObjectTypeData: class(ObjectTypeData, 0, []AttributeInfo{rw("value")}),

	ObjectTypeRegister: class(ObjectTypeRegister, 0, []AttributeInfo{
		rw("value"), ro("scaler_unit"),
	}, "reset"),

	ObjectTypeExtendedRegister: class(ObjectTypeExtendedRegister, 0, []AttributeInfo{
		rw("value"), ro("scaler_unit"), ro("status"), typed(ro("capture_time"), DataTypeDateTime),
	}, "reset"),

	ObjectTypeDemandRegister: class(ObjectTypeDemandRegister, 0, []AttributeInfo{
		ro("current_average_value"), ro("last_average_value"), ro("scaler_unit"), ro("status"),
		typed(ro("capture_time"), DataTypeDateTime), typed(ro("start_time_current"), DataTypeDateTime),
		rw("period"), rw("number_of_periods"),
	}, "reset", "next_period"),

	ObjectTypeRegisterActivation: class(ObjectTypeRegisterActivation, 0, []AttributeInfo{
		rw("register_assignment"), rw("mask_list"), rw("active_mask"),
	}, "add_register", "add_mask", "delete_mask"),

	ObjectTypeProfileGeneric: class(ObjectTypeProfileGeneric, 1, []AttributeInfo{
		ro("buffer"), rw("capture_objects"), rw("capture_period"), rw("sort_method"),
		rw("sort_object"), ro("entries_in_use"), rw("profile_entries"),
	}, "reset", "capture").withOlder(0, 8, 4),

	ObjectTypeClock: class(ObjectTypeClock, 0, []AttributeInfo{
		typed(rw("time"), DataTypeDateTime), rw("time_zone"), ro("status"),
		typed(rw("daylight_savings_begin"), DataTypeDateTime), typed(rw("daylight_savings_end"), DataTypeDateTime),
		rw("daylight_savings_deviation"), rw("daylight_savings_enabled"), ro("clock_base"),
	}, "adjust_to_quarter", "adjust_to_measuring_period", "adjust_to_minute",
		"adjust_to_preset_time", "preset_adjusting_time", "shift_time"),

	ObjectTypeScriptTable: class(ObjectTypeScriptTable, 0, []AttributeInfo{
		ro("scripts"),
	}, "execute"),

	ObjectTypeSchedule: class(ObjectTypeSchedule, 0, []AttributeInfo{
		ro("entries"),
	}, "enable_disable", "insert", "delete"),

	ObjectTypeSpecialDaysTable: class(ObjectTypeSpecialDaysTable, 0, []AttributeInfo{
		ro("entries"),
	}, "insert", "delete"),

	ObjectTypeAssociationShortName: class(ObjectTypeAssociationShortName, 2, []AttributeInfo{
		ro("object_list"), ro("access_rights_list"), ro("security_setup_reference"),
	}, "read_by_logicalname", "get_attributes_and_methods", "change_LLS_secret",
		"change_HLS_secret", "get_HLS_challenge", "reply_to_HLS_authentication",
		"add_user", "remove_user").withOlder(0, 3, 8),

	ObjectTypeAssociationLogicalName: class(ObjectTypeAssociationLogicalName, 2, []AttributeInfo{
		ro("object_list"), ro("associated_partners_id"), ro("application_context_name"),
		ro("xDLMS_context_info"), ro("authentication_mechanism_name"), AttributeInfo{Name: "secret", Access: AccessWrite},
		ro("association_status"), typed(ro("security_setup_reference"), DataTypeLogicalName),
		ro("user_list"), ro("current_user"),
	}, "reply_to_HLS_authentication", "change_HLS_secret", "add_object", "remove_object",
		"add_user", "remove_user").withOlder(0, 8, 4).withOlder(1, 9, 4),

	ObjectTypeSapAssignment: class(ObjectTypeSapAssignment, 0, []AttributeInfo{
		ro("SAP_assignment_list"),
	}, "connect_logical_device"),

	ObjectTypeImageTransfer: class(ObjectTypeImageTransfer, 0, []AttributeInfo{
		ro("image_block_size"), ro("image_transferred_blocks_status"),
		ro("image_first_not_transferred_block_number"), rw("image_transfer_enabled"),
		ro("image_transfer_status"), ro("image_to_activate_info"),
	}, "image_transfer_initiate", "image_block_transfer", "image_verify", "image_activate"),

	ObjectTypeIecLocalPortSetup: class(ObjectTypeIecLocalPortSetup, 1, []AttributeInfo{
		rw("default_mode"), rw("default_baud"), rw("prop_baud"), rw("response_time"),
		typed(rw("device_addr"), DataTypeString), typed(rw("pass_p1"), DataTypeString),
		typed(rw("pass_p2"), DataTypeString), typed(rw("pass_w5"), DataTypeString),
	}),

	ObjectTypeActivityCalendar: class(ObjectTypeActivityCalendar, 0, []AttributeInfo{
		typed(ro("calendar_name_active"), DataTypeString), ro("season_profile_active"),
		ro("week_profile_table_active"), ro("day_profile_table_active"),
		typed(rw("calendar_name_passive"), DataTypeString), rw("season_profile_passive"),
		rw("week_profile_table_passive"), rw("day_profile_table_passive"),
		typed(rw("activate_passive_calendar_time"), DataTypeDateTime),
	}, "activate_passive_calendar"),

	ObjectTypeRegisterMonitor: class(ObjectTypeRegisterMonitor, 0, []AttributeInfo{
		rw("thresholds"), rw("monitored_value"), rw("actions"),
	}),

	ObjectTypeActionSchedule: class(ObjectTypeActionSchedule, 0, []AttributeInfo{
		rw("executed_script"), rw("type"), rw("execution_time"),
	}),

	ObjectTypeIecHdlcSetup: class(ObjectTypeIecHdlcSetup, 1, []AttributeInfo{
		rw("comm_speed"), rw("window_size_transmit"), rw("window_size_receive"),
		rw("max_info_field_length_transmit"), rw("max_info_field_length_receive"),
		rw("inter_octet_time_out"), rw("inactivity_time_out"), rw("device_address"),
	}),

	ObjectTypeUtilityTables: class(ObjectTypeUtilityTables, 0, []AttributeInfo{
		ro("table_ID"), ro("length"), ro("buffer"),
	}),

	ObjectTypeModemConfiguration: class(ObjectTypeModemConfiguration, 1, []AttributeInfo{
		rw("communication_speed"), rw("initialization_string"), rw("modem_profile"),
	}),

	ObjectTypePushSetup: class(ObjectTypePushSetup, 0, []AttributeInfo{
		rw("push_object_list"), rw("send_destination_and_method"), rw("communication_window"),
		rw("randomisation_start_interval"), rw("number_of_retries"), rw("repetition_delay"),
	}, "push"),

	ObjectTypeTcpUdpSetup: class(ObjectTypeTcpUdpSetup, 0, []AttributeInfo{
		rw("TCP_UDP_port"), typed(rw("IP_reference"), DataTypeLogicalName), rw("MSS"),
		rw("nb_of_sim_conn"), rw("inactivity_time_out"),
	}),

	ObjectTypeIp4Setup: class(ObjectTypeIp4Setup, 0, []AttributeInfo{
		typed(rw("DL_reference"), DataTypeLogicalName), rw("IP_address"), rw("multicast_IP_address"),
		rw("IP_options"), rw("subnet_mask"), rw("gateway_IP_address"), rw("use_DHCP_flag"),
		rw("primary_DNS_address"), rw("secondary_DNS_address"),
	}, "add_mc_IP_address", "delete_mc_IP_address", "get_nb_of_mc_IP_addresses"),

	ObjectTypeGprsSetup: class(ObjectTypeGprsSetup, 0, []AttributeInfo{
		typed(rw("APN"), DataTypeString), rw("PIN_code"), rw("quality_of_service"),
	}),

	ObjectTypeRegisterTable: class(ObjectTypeRegisterTable, 0, []AttributeInfo{
		ro("table_cell_values"), rw("table_cell_definition"), ro("scaler_unit"),
	}, "reset", "capture"),

	ObjectTypeSecuritySetup: class(ObjectTypeSecuritySetup, 1, []AttributeInfo{
		rw("security_policy"), ro("security_suite"), ro("client_system_title"),
		ro("server_system_title"), ro("certificates"),
	}, "security_activate", "key_transfer", "key_agreement", "generate_key_pair",
		"generate_certificate_request", "import_certificate", "export_certificate",
		"remove_certificate").withOlder(0, 5, 2),

	ObjectTypeDisconnectControl: class(ObjectTypeDisconnectControl, 0, []AttributeInfo{
		ro("output_state"), ro("control_state"), rw("control_mode"),
	}, "remote_disconnect", "remote_reconnect"),

	ObjectTypeLimiter: class(ObjectTypeLimiter, 0, []AttributeInfo{
		rw("monitored_value"), ro("threshold_active"), rw("threshold_normal"),
		rw("threshold_emergency"), rw("min_over_threshold_duration"),
		rw("min_under_threshold_duration"), rw("emergency_profile"),
		rw("emergency_profile_group_id_list"), ro("emergency_profile_active"), rw("actions"),
	}),
}
